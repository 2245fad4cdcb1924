package serde

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/compress"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// trailerSize is the fixed 20-byte trailer every strata file ends with:
// schema_offset (u64), footer_offset (u64), magic (4 bytes "SP1R").
const trailerSize = 20

var magic = [4]byte{'S', 'P', '1', 'R'}

// numColumns returns how many top-level columns dt's file format has: one
// per Struct field, or a single column for any other top-level dtype.
func numColumns(dt dtype.DType) int {
	if dt.Kind() == dtype.KindStruct {
		return len(dt.FieldNames())
	}

	return 1
}

// columnDType returns the dtype of top-level column i.
func columnDType(dt dtype.DType, i int) dtype.DType {
	if dt.Kind() == dtype.KindStruct {
		return dt.FieldTypes()[i]
	}

	return dt
}

type columnState struct {
	byteOffsets []uint64
	rowOffsets  []uint64
	lastMsgEnd  uint64
}

// ColumnFileWriter builds a strata column file: a schema message,
// followed by zero or more chunk (batch) messages per top-level column,
// followed by a footer and trailer. Chunks for a given column must be
// written consecutively — WriteChunk(0, ...) calls, then
// WriteChunk(1, ...) calls, and so on — since each column's byte_offsets
// are only meaningful as a contiguous range.
type ColumnFileWriter struct {
	w            ByteWriter
	dt           dtype.DType
	algorithm    compress.Algorithm
	schemaOffset int64
	columns      []*columnState
	lastColumn   int
}

// NewColumnFileWriter writes dt's schema message immediately and returns a
// writer ready to accept chunks for each of dt's top-level columns.
func NewColumnFileWriter(ctx context.Context, w ByteWriter, dt dtype.DType, algorithm compress.Algorithm) (*ColumnFileWriter, error) {
	schemaOffset, err := writeSchema(ctx, w, dt)
	if err != nil {
		return nil, err
	}

	n := numColumns(dt)
	cols := make([]*columnState, n)
	for i := range cols {
		cols[i] = &columnState{byteOffsets: []uint64{}, rowOffsets: []uint64{0}}
	}

	return &ColumnFileWriter{w: w, dt: dt, algorithm: algorithm, schemaOffset: schemaOffset, columns: cols, lastColumn: -1}, nil
}

// WriteChunk appends arr as the next chunk of column col. arr's dtype
// must equal that column's dtype.
func (cf *ColumnFileWriter) WriteChunk(ctx context.Context, col int, arr *array.Array) error {
	if col < 0 || col >= len(cf.columns) {
		return fmt.Errorf("%w: column %d, have %d columns", errs.ErrOutOfBounds, col, len(cf.columns))
	}
	if col < cf.lastColumn {
		return fmt.Errorf("%w: chunks for column %d written after column %d started", errs.ErrInvalidArgument, col, cf.lastColumn)
	}
	cf.lastColumn = col

	body, err := encodeBatch(arr, cf.algorithm)
	if err != nil {
		return err
	}

	pos, err := writeMessage(ctx, cf.w, body)
	if err != nil {
		return err
	}

	st := cf.columns[col]
	st.byteOffsets = append(st.byteOffsets, uint64(pos))
	st.lastMsgEnd = uint64(pos) + 8 + uint64(len(body))
	st.rowOffsets = append(st.rowOffsets, st.rowOffsets[len(st.rowOffsets)-1]+uint64(arr.Len()))

	return nil
}

// Finish writes the footer and trailing 20-byte summary and returns the
// file's total length.
func (cf *ColumnFileWriter) Finish(ctx context.Context) (int64, error) {
	for _, st := range cf.columns {
		st.byteOffsets = append(st.byteOffsets, st.lastMsgEnd)
	}

	footerBody := encodeFooter(cf.columns)
	footerOffset, err := writeMessage(ctx, cf.w, footerBody)
	if err != nil {
		return 0, err
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint64(trailer[0:8], uint64(cf.schemaOffset))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(footerOffset))
	copy(trailer[16:20], magic[:])

	pos, err := cf.w.WriteAll(ctx, trailer[:])
	if err != nil {
		return 0, err
	}

	return pos + trailerSize, nil
}

func encodeFooter(columns []*columnState) []byte {
	var buf []byte
	buf = appendUint32(buf, uint32(len(columns)))
	for _, st := range columns {
		n := len(st.byteOffsets)
		buf = appendUint32(buf, uint32(n))
		for _, o := range st.byteOffsets {
			buf = appendUint64(buf, o)
		}
		for _, o := range st.rowOffsets {
			buf = appendUint64(buf, o)
		}
	}

	return buf
}

type columnFooter struct {
	byteOffsets []uint64
	rowOffsets  []uint64
}

func decodeFooter(b []byte) ([]columnFooter, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: footer truncated", errs.ErrInvalidSerde)
	}
	n := int(binary.LittleEndian.Uint32(b))
	pos := 4

	out := make([]columnFooter, n)
	for i := 0; i < n; i++ {
		if pos+4 > len(b) {
			return nil, fmt.Errorf("%w: footer column %d header truncated", errs.ErrInvalidSerde, i)
		}
		count := int(binary.LittleEndian.Uint32(b[pos:]))
		pos += 4

		need := 8 * count * 2
		if pos+need > len(b) {
			return nil, fmt.Errorf("%w: footer column %d offsets truncated", errs.ErrInvalidSerde, i)
		}

		byteOffsets := make([]uint64, count)
		for j := range byteOffsets {
			byteOffsets[j] = binary.LittleEndian.Uint64(b[pos:])
			pos += 8
		}
		rowOffsets := make([]uint64, count)
		for j := range rowOffsets {
			rowOffsets[j] = binary.LittleEndian.Uint64(b[pos:])
			pos += 8
		}

		if !strictlyIncreasing(byteOffsets) || !strictlyIncreasing(rowOffsets) {
			return nil, fmt.Errorf("%w: footer column %d offsets not strictly increasing", errs.ErrInvalidSerde, i)
		}

		out[i] = columnFooter{byteOffsets: byteOffsets, rowOffsets: rowOffsets}
	}

	return out, nil
}

func strictlyIncreasing(vs []uint64) bool {
	for i := 1; i < len(vs); i++ {
		if vs[i] <= vs[i-1] {
			return false
		}
	}

	return true
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)

	return append(buf, tmp[:]...)
}

// ColumnFileReader provides random access to a strata column file: given
// a column index and a row range, it locates the covering chunks via
// binary search over that column's row_offsets, decodes only those
// chunks, and slices the result to the requested range.
type ColumnFileReader struct {
	r      ByteReader
	dt     dtype.DType
	footer []columnFooter
}

// OpenColumnFile reads r's trailer, schema, and footer and returns a
// reader ready to serve ReadRange calls.
func OpenColumnFile(ctx context.Context, r ByteReader) (*ColumnFileReader, error) {
	total, err := r.Len(ctx)
	if err != nil {
		return nil, err
	}
	if total < trailerSize {
		return nil, fmt.Errorf("%w: file shorter than trailer", errs.ErrInvalidSerde)
	}

	trailer, err := r.ReadAt(ctx, total-trailerSize, trailerSize)
	if err != nil {
		return nil, err
	}
	if string(trailer[16:20]) != string(magic[:]) {
		return nil, fmt.Errorf("%w: trailing bytes %x", errs.ErrBadMagic, trailer[16:20])
	}

	schemaOffset := int64(binary.LittleEndian.Uint64(trailer[0:8]))
	footerOffset := int64(binary.LittleEndian.Uint64(trailer[8:16]))

	dt, err := readSchema(ctx, r, schemaOffset)
	if err != nil {
		return nil, err
	}

	footerBody, _, err := readMessage(ctx, r, footerOffset)
	if err != nil {
		return nil, err
	}
	footer, err := decodeFooter(footerBody)
	if err != nil {
		return nil, err
	}
	if len(footer) != numColumns(dt) {
		return nil, fmt.Errorf("%w: footer has %d columns, schema has %d", errs.ErrInvalidSerde, len(footer), numColumns(dt))
	}

	return &ColumnFileReader{r: r, dt: dt, footer: footer}, nil
}

// DType returns the file's top-level schema.
func (cf *ColumnFileReader) DType() dtype.DType { return cf.dt }

// NumRows returns column col's total row count.
func (cf *ColumnFileReader) NumRows(col int) (int, error) {
	if col < 0 || col >= len(cf.footer) {
		return 0, fmt.Errorf("%w: column %d, have %d columns", errs.ErrOutOfBounds, col, len(cf.footer))
	}
	ro := cf.footer[col].rowOffsets

	return int(ro[len(ro)-1]), nil
}

// chunkCovering returns the index of the chunk covering logical row i
// within column col's row_offsets, i.e. the largest j with
// row_offsets[j] <= i.
func chunkCovering(rowOffsets []uint64, i uint64) int {
	return sort.Search(len(rowOffsets)-1, func(j int) bool {
		return rowOffsets[j+1] > i
	})
}

// ReadRange returns rows [a, b) of column col, decoding only the chunks
// that overlap the range and slicing the result to exactly [a, b).
func (cf *ColumnFileReader) ReadRange(ctx context.Context, col int, a, b int) (*array.Array, error) {
	if col < 0 || col >= len(cf.footer) {
		return nil, fmt.Errorf("%w: column %d, have %d columns", errs.ErrOutOfBounds, col, len(cf.footer))
	}
	if a < 0 || b < a {
		return nil, fmt.Errorf("%w: invalid range [%d, %d)", errs.ErrInvalidArgument, a, b)
	}

	f := cf.footer[col]
	total := int(f.rowOffsets[len(f.rowOffsets)-1])
	if b > total {
		return nil, fmt.Errorf("%w: range [%d, %d) exceeds column length %d", errs.ErrOutOfBounds, a, b, total)
	}
	if a == b {
		return array.RebuildFromScalars(columnDType(cf.dt, col), nil, nil)
	}

	firstChunk := chunkCovering(f.rowOffsets, uint64(a))
	lastChunk := chunkCovering(f.rowOffsets, uint64(b-1))

	var parts []*array.Array
	for c := firstChunk; c <= lastChunk; c++ {
		msgPos := int64(f.byteOffsets[c])
		body, _, err := readMessage(ctx, cf.r, msgPos)
		if err != nil {
			return nil, err
		}

		chunk, err := decodeBatch(body)
		if err != nil {
			return nil, err
		}

		lo := 0
		hi := chunk.Len()
		chunkStart := int(f.rowOffsets[c])
		if c == firstChunk {
			lo = a - chunkStart
		}
		if c == lastChunk {
			hi = b - chunkStart
		}

		if lo != 0 || hi != chunk.Len() {
			sliced, err := chunk.Slice(lo, hi)
			if err != nil {
				return nil, err
			}
			chunk = sliced
		}

		parts = append(parts, chunk)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}

	return concatArrays(columnDType(cf.dt, col), parts)
}

// concatArrays stitches adjacent chunk slices spanning a requested row
// range into one array, without requiring every encoding to implement
// its own concat kernel. Struct and Extension recurse structurally
// (concatenating each field, or the storage array, independently); every
// other dtype falls back to a scalar-by-scalar rebuild via the same
// generic path Constant/Sparse/Dictionary already use to canonicalize.
func concatArrays(dt dtype.DType, parts []*array.Array) (*array.Array, error) {
	switch dt.Kind() {
	case dtype.KindStruct:
		fieldNames := dt.FieldNames()
		fieldTypes := dt.FieldTypes()
		children := make([]*array.Array, len(fieldNames))

		for fi := range fieldNames {
			fieldParts := make([]*array.Array, len(parts))
			for pi, p := range parts {
				c, err := p.Child(fi, dtype.DType{}, -1)
				if err != nil {
					return nil, err
				}
				fieldParts[pi] = c
			}
			fc, err := concatArrays(fieldTypes[fi], fieldParts)
			if err != nil {
				return nil, err
			}
			children[fi] = fc
		}

		return array.NewStruct(fieldNames, fieldTypes, children, concatValidity(parts), dtype.Nullability(dt.Nullable())), nil
	case dtype.KindExtension:
		storageParts := make([]*array.Array, len(parts))
		for i, p := range parts {
			c, err := p.Child(0, dtype.DType{}, -1)
			if err != nil {
				return nil, err
			}
			storageParts[i] = c
		}
		storage, err := concatArrays(dt.StorageType(), storageParts)
		if err != nil {
			return nil, err
		}

		return array.NewExtension(dt, storage), nil
	default:
		total := 0
		for _, p := range parts {
			total += p.Len()
		}

		vals := make([]scalar.Scalar, 0, total)
		valid := make([]bool, 0, total)
		for _, p := range parts {
			for i := 0; i < p.Len(); i++ {
				v, err := p.ScalarAt(i)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
				valid = append(valid, !v.IsNull())
			}
		}

		return array.RebuildFromScalars(dt, vals, valid)
	}
}

func concatValidity(parts []*array.Array) validity.Validity {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}

	bits := make([]bool, 0, total)
	for _, p := range parts {
		v := p.Validity()
		for i := 0; i < p.Len(); i++ {
			bits = append(bits, v.IsValid(i))
		}
	}

	return validity.BitmapFromBools(bits).Collapse()
}
