package array

import (
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/validity"
)

// NewNull builds a Null canonical array of the given length. Every
// element is null; DType() is always dtype.Null().
func NewNull(length int) *Array {
	return newNode(EncodingNull, dtype.Null(), length, nil, nil, nil, validity.AllInvalid(length), canonicalKernels{})
}
