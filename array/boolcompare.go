package array

import (
	"github.com/strata-db/strata/validity"
)

// boolCompare implements a bitwise elementwise comparison between two
// canonical Bool arrays, operating directly on their packed LSB-first
// bitmap bytes instead of decoding scalar-by-scalar. Both operands' data
// buffers already use the same packed-bitmap layout validity itself uses,
// so the comparison reduces to a byte-wise XOR/AND/OR/NOT, the same trick
// the original array model applies over its bit-packed boolean buffer
// before any per-element branching.
func boolCompare(a, b *Array, op CompareOp) (*Array, error) {
	la := a.buffers[0]
	lb := b.buffers[0]

	out := make([]byte, len(la))
	for i := range out {
		x, y := la[i], lb[i]
		switch op {
		case CompareEQ:
			out[i] = ^(x ^ y)
		case CompareNE:
			out[i] = x ^ y
		case CompareGT:
			out[i] = x &^ y
		case CompareGE:
			out[i] = x | ^y
		case CompareLT:
			out[i] = ^x & y
		case CompareLE:
			out[i] = ^x | y
		}
	}

	return NewBool(a.length, out, combineValidityAnd(a.validity, b.validity)), nil
}

// combineValidityAnd returns the elementwise AND of two same-length
// validities, short-circuiting on the uniform cases (NonNullable/AllValid/
// AllInvalid) so two fully-valid operands never materialize a bitmap.
func combineValidityAnd(a, b validity.Validity) validity.Validity {
	n := a.Len()

	aUniform, aAllValid := a.IsUniform()
	bUniform, bAllValid := b.IsUniform()
	if aUniform && bUniform {
		if aAllValid && bAllValid {
			return validity.AllValid(n)
		}

		return validity.AllInvalid(n)
	}

	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = a.IsValid(i) && b.IsValid(i)
	}

	return validity.BitmapFromBools(valid)
}
