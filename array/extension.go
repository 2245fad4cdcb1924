package array

import "github.com/strata-db/strata/dtype"

// NewExtension wraps a storage array under an Extension logical type. The
// storage array's own encoding and length are preserved unchanged; only
// the reported DType changes.
func NewExtension(dt dtype.DType, storage *Array) *Array {
	return newNode(EncodingExtension, dt, storage.Len(), nil, []*Array{storage}, nil, storage.Validity(), canonicalKernels{})
}

func extensionStorage(a *Array) *Array { return a.children[0] }

func extensionSlice(a *Array, start, stop int) (*Array, error) {
	s, err := extensionStorage(a).Slice(start, stop)
	if err != nil {
		return nil, err
	}

	return NewExtension(a.dt, s), nil
}

func extensionTake(a *Array, indices []int) (*Array, error) {
	s, err := extensionStorage(a).Take(indices)
	if err != nil {
		return nil, err
	}

	return NewExtension(a.dt, s), nil
}
