// Package fsst implements a Fast Static Symbol Table string encoding: a
// table of up to 255 short byte sequences (symbols) lets each string be
// rewritten as a sequence of one-byte symbol codes, with code 255
// reserved as an escape that is followed by one literal raw byte for
// whatever didn't match a symbol.
package fsst

import (
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// ID is FSST's encoding tag.
const ID = array.EncodingIDUserBase + 10

// EscapeCode is the reserved code signaling a literal raw byte follows.
const EscapeCode = 255

// MaxSymbols is the largest symbol table FSST can address with one byte
// per code (256 codes, one reserved for escape).
const MaxSymbols = 255

// MaxSymbolLen bounds an individual symbol's byte length.
const MaxSymbolLen = 8

type kernels struct{}

var _ array.Kernels = kernels{}
var _ array.ScalarAtKernel = kernels{}

func symbolTable(a *array.Array) [][]byte {
	md := a.Metadata()
	n := int(md[0])
	syms := make([][]byte, n)
	pos := 1
	for i := 0; i < n; i++ {
		l := int(md[pos])
		pos++
		syms[i] = md[pos : pos+l]
		pos += l
	}

	return syms
}

func encodedChild(a *array.Array) *array.Array {
	c, _ := a.Child(0, dtype.DType{}, -1)

	return c
}

func decode(syms [][]byte, codes []byte) []byte {
	out := make([]byte, 0, len(codes)*2)
	for i := 0; i < len(codes); i++ {
		c := codes[i]
		if c == EscapeCode {
			i++
			out = append(out, codes[i])

			continue
		}
		out = append(out, syms[c]...)
	}

	return out
}

func (kernels) Canonicalize(a *array.Array) (*array.Array, error) {
	syms := symbolTable(a)
	enc := encodedChild(a)
	isUtf8 := a.DType().Kind() == dtype.KindUtf8

	vals := make([]scalar.Scalar, a.Len())
	valid := make([]bool, a.Len())
	for i := range vals {
		cv, err := enc.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if cv.IsNull() {
			vals[i] = scalar.Null(a.DType())

			continue
		}

		raw := decode(syms, cv.AsBytes())
		if isUtf8 {
			vals[i] = scalar.String(string(raw))
		} else {
			vals[i] = scalar.Bytes(raw)
		}
		valid[i] = true
	}

	return array.RebuildFromScalars(a.DType(), vals, valid)
}

func (kernels) ScalarAt(a *array.Array, i int) (scalar.Scalar, error) {
	enc := encodedChild(a)
	cv, err := enc.ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if cv.IsNull() {
		return scalar.Null(a.DType()), nil
	}

	raw := decode(symbolTable(a), cv.AsBytes())
	if a.DType().Kind() == dtype.KindUtf8 {
		return scalar.String(string(raw)), nil
	}

	return scalar.Bytes(raw), nil
}

func encodeMetadata(syms [][]byte) []byte {
	md := []byte{byte(len(syms))}
	for _, s := range syms {
		md = append(md, byte(len(s)))
		md = append(md, s...)
	}

	return md
}

// buildSymbolTable greedily selects up to MaxSymbols substrings (length
// 2..MaxSymbolLen) that recur across corpus, scored by
// frequency*(length-1) (length-1 being the bytes a one-byte code saves
// per occurrence versus the raw bytes).
func buildSymbolTable(corpus [][]byte) [][]byte {
	type candidate struct {
		sym   string
		count int
	}

	counts := make(map[string]int)
	for _, s := range corpus {
		for l := 2; l <= MaxSymbolLen; l++ {
			if l > len(s) {
				break
			}
			for i := 0; i+l <= len(s); i++ {
				counts[string(s[i:i+l])]++
			}
		}
	}

	cands := make([]candidate, 0, len(counts))
	for sym, c := range counts {
		if c < 2 {
			continue
		}
		cands = append(cands, candidate{sym, c})
	}

	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			si := cands[i].count * (len(cands[i].sym) - 1)
			sj := cands[j].count * (len(cands[j].sym) - 1)
			if sj > si {
				cands[i], cands[j] = cands[j], cands[i]
			}
		}
	}

	if len(cands) > MaxSymbols {
		cands = cands[:MaxSymbols]
	}

	syms := make([][]byte, len(cands))
	for i, c := range cands {
		syms[i] = []byte(c.sym)
	}

	return syms
}

func encodeString(syms [][]byte, s []byte) []byte {
	out := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		matched := -1
		matchLen := 0
		for code, sym := range syms {
			if len(sym) <= matchLen || len(sym) > len(s)-i {
				continue
			}
			if string(s[i:i+len(sym)]) == string(sym) {
				matched = code
				matchLen = len(sym)
			}
		}

		if matched >= 0 {
			out = append(out, byte(matched))
			i += matchLen
		} else {
			out = append(out, EscapeCode, s[i])
			i++
		}
	}

	return out
}

// CanCompress reports whether arr is a string or binary array with
// enough repeated substrings to build a useful symbol table.
func CanCompress(arr *array.Array) bool {
	dt := arr.DType()
	if dt.Kind() != dtype.KindUtf8 && dt.Kind() != dtype.KindBinary {
		return false
	}
	if arr.Len() == 0 {
		return false
	}

	corpus, _, err := rawStrings(arr)
	if err != nil {
		return false
	}

	return len(buildSymbolTable(corpus)) > 0
}

func rawStrings(arr *array.Array) (raw [][]byte, valid []bool, err error) {
	raw = make([][]byte, arr.Len())
	valid = make([]bool, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		v, err := arr.ScalarAt(i)
		if err != nil {
			return nil, nil, err
		}
		if v.IsNull() {
			continue
		}
		raw[i] = v.AsBytes()
		valid[i] = true
	}

	return raw, valid, nil
}

// Encode builds arr's FSST encoding.
func Encode(arr *array.Array) (*array.Array, error) {
	dt := arr.DType()
	if dt.Kind() != dtype.KindUtf8 && dt.Kind() != dtype.KindBinary {
		return nil, fmt.Errorf("%w: fsst.Encode requires a Utf8 or Binary array", errs.ErrInvalidType)
	}
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: fsst.Encode on empty array", errs.ErrEmptyInput)
	}

	raw, valid, err := rawStrings(arr)
	if err != nil {
		return nil, err
	}

	var corpus [][]byte
	for i, ok := range valid {
		if ok {
			corpus = append(corpus, raw[i])
		}
	}
	syms := buildSymbolTable(corpus)

	offsets := make([]uint32, arr.Len()+1)
	var data []byte
	for i := 0; i < arr.Len(); i++ {
		if valid[i] {
			data = append(data, encodeString(syms, raw[i])...)
		}
		offsets[i+1] = uint32(len(data))
	}

	v := arr.Validity()
	if v.Kind() == validity.KindNonNullable {
		v = validity.AllValid(arr.Len())
	}
	enc := array.NewVarBin(false, arr.Len(), offsets, data, v)

	md := encodeMetadata(syms)

	return array.NewEncoded(ID, dt, arr.Len(), md, []*array.Array{enc}, nil, arr.Validity(), kernels{}), nil
}

// FromParts reconstructs a previously-serialized FSST array from its raw
// metadata (symbol table) and code-stream child, for use by package
// serde's deserializer.
func FromParts(dt dtype.DType, length int, metadata []byte, children []*array.Array, v validity.Validity) *array.Array {
	return array.NewEncoded(ID, dt, length, metadata, children, nil, v, kernels{})
}
