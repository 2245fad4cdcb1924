// Package errs defines the sentinel errors produced by strata's array
// algebra, encoding kernels, sampling compressor, and serialization
// envelope.
//
// Callers should use errors.Is against these sentinels rather than matching
// on error strings; every error returned by this module wraps one of them
// with fmt.Errorf("%w: ...") for positional context.
package errs

import "errors"

// Kernel errors: a kernel received input it structurally cannot handle.
var (
	// ErrInvalidType indicates a kernel received an array whose dtype or
	// encoding it does not support.
	ErrInvalidType = errors.New("invalid type for this operation")

	// ErrMismatchedTypes indicates two arrays passed to a binary operation
	// (compare, concat) have incompatible dtypes.
	ErrMismatchedTypes = errors.New("mismatched types")

	// ErrNotImplemented indicates an operation is not defined for an
	// array's canonical kind or dtype (e.g. scalar_at on a Struct array).
	ErrNotImplemented = errors.New("operation not implemented for this encoding")
)

// Bounds and argument errors.
var (
	// ErrOutOfBounds indicates an index fell outside [0, len).
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrInvalidArgument is the general shape/length/constraint violation
	// sentinel (non-monotonic ends, validity/length mismatch, offset out
	// of range, and similar).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNonMonotonicEnds indicates a run-end array's ends buffer is not
	// strictly increasing.
	ErrNonMonotonicEnds = errors.New("run ends are not strictly increasing")

	// ErrValidityLengthMismatch indicates validity.Len() != array length.
	ErrValidityLengthMismatch = errors.New("validity length does not match array length")

	// ErrOffsetOutOfRange indicates an internal logical offset (bit-packed,
	// delta, run-end) fell outside its permitted [0, blockSize) range.
	ErrOffsetOutOfRange = errors.New("internal offset out of range")

	// ErrEmptyInput indicates an operation received a zero-length array
	// where at least one element is required (e.g. ALP exponent search).
	ErrEmptyInput = errors.New("empty input")
)

// Serialization errors.
var (
	// ErrInvalidSerde is the general malformed-wire-data sentinel.
	ErrInvalidSerde = errors.New("invalid serialized data")

	// ErrBadMagic indicates the trailing magic bytes did not match "SP1R".
	ErrBadMagic = errors.New("bad magic number")

	// ErrBadFlatbuffer indicates a metadata message failed to parse as a
	// well-formed flatbuffer table.
	ErrBadFlatbuffer = errors.New("malformed flatbuffer message")

	// ErrBufferLengthMismatch indicates a buffer table entry's declared
	// length did not match the bytes available at its offset.
	ErrBufferLengthMismatch = errors.New("buffer length mismatch")

	// ErrUnknownBufferCodec indicates a buffer table entry named a buffer
	// codec this build does not recognize.
	ErrUnknownBufferCodec = errors.New("unknown buffer codec")
)

// Arithmetic errors.
var (
	// ErrOverflow indicates an integer kernel (e.g. subtract_scalar with
	// bounds checking) over/underflowed.
	ErrOverflow = errors.New("integer overflow")
)

// Compressor errors.
var (
	// ErrNoCandidates indicates every enabled encoding's can_compress
	// returned false for a given array.
	ErrNoCandidates = errors.New("no candidate encoding accepted this array")

	// ErrMaxDepthExceeded is informational only; the sampling compressor
	// treats hitting max depth as "return input unchanged", never as a
	// hard failure, and no code in this module returns it.
	ErrMaxDepthExceeded = errors.New("max recursion depth exceeded")
)
