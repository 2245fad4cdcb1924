package serde

import (
	"encoding/binary"
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/alp"
	"github.com/strata-db/strata/encoding/bitpacked"
	"github.com/strata-db/strata/encoding/chunked"
	"github.com/strata-db/strata/encoding/constant"
	"github.com/strata-db/strata/encoding/delta"
	"github.com/strata-db/strata/encoding/dict"
	"github.com/strata-db/strata/encoding/forenc"
	"github.com/strata-db/strata/encoding/fsst"
	"github.com/strata-db/strata/encoding/roaring"
	"github.com/strata-db/strata/encoding/runend"
	"github.com/strata-db/strata/encoding/sparse"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/scalar"
	"github.com/strata-db/strata/validity"
)

// treeNode is the generic, in-memory mirror of one array.Array node,
// built by walking the public Array API. It is the shape the flatbuffer
// envelope in fbnode.go encodes and decodes; splitting it out keeps the
// flatbuffer plumbing separate from the walk/dispatch logic below.
type treeNode struct {
	encodingID array.EncodingID
	dt         dtype.DType
	length     int
	metadata   []byte
	children   []*treeNode
	// bufferIdx holds, for each of this node's raw buffers, the index
	// into the batch-level deduplicated buffer table.
	bufferIdx []uint32
	validity  validity.Validity
}

// walkArray converts arr into a treeNode tree, registering each raw
// buffer it owns (via addBuffer) into the batch-wide buffer table.
func walkArray(arr *array.Array, addBuffer func([]byte) uint32) *treeNode {
	n := &treeNode{
		encodingID: arr.EncodingID(),
		dt:         arr.DType(),
		length:     arr.Len(),
		metadata:   arr.Metadata(),
		validity:   arr.Validity(),
	}

	for i := 0; i < arr.NumChildren(); i++ {
		c, _ := arr.Child(i, dtype.DType{}, -1)
		n.children = append(n.children, walkArray(c, addBuffer))
	}

	for i := 0; i < arr.NumBuffers(); i++ {
		b, _ := arr.Buffer(i)
		n.bufferIdx = append(n.bufferIdx, addBuffer(b))
	}

	return n
}

// buildArray is walkArray's inverse: it reconstructs an *array.Array from
// n, resolving buffer indices against the already-decompressed
// batch-level buffer table getBuffer(idx).
func buildArray(n *treeNode, getBuffer func(uint32) ([]byte, error)) (*array.Array, error) {
	children := make([]*array.Array, len(n.children))
	for i, c := range n.children {
		ca, err := buildArray(c, getBuffer)
		if err != nil {
			return nil, err
		}
		children[i] = ca
	}

	buffers := make([][]byte, len(n.bufferIdx))
	for i, idx := range n.bufferIdx {
		b, err := getBuffer(idx)
		if err != nil {
			return nil, err
		}
		buffers[i] = b
	}

	return decodeNode(n.encodingID, n.dt, n.length, n.metadata, children, buffers, n.validity)
}

// decodeNode dispatches on encodingID to reconstruct one node. Every
// encoding package exposes either a deterministic-validity public
// constructor (New/Encode, for constant/sparse/dict/chunked, where
// reconstructed validity always matches the original exactly) or a
// FromParts/FromPartsRD escape hatch that takes validity verbatim
// (everything else, since their validity cannot always be re-derived
// from metadata and children alone).
func decodeNode(id array.EncodingID, dt dtype.DType, length int, metadata []byte, children []*array.Array, buffers [][]byte, v validity.Validity) (*array.Array, error) {
	switch id {
	case array.EncodingNull:
		return array.NewNull(length), nil
	case array.EncodingBool:
		return array.NewBool(length, buffers[0], v), nil
	case array.EncodingPrimitive:
		return array.NewPrimitive(dt.PType(), length, buffers[0], v), nil
	case array.EncodingVarBin:
		offsets := decodeUint32Buffer(buffers[0], length+1)

		return array.NewVarBin(dt.Kind() == dtype.KindUtf8, length, offsets, buffers[1], v), nil
	case array.EncodingVarBinView:
		return array.NewVarBinView(dt.Kind() == dtype.KindUtf8, length, buffers[0], buffers[1:], v), nil
	case array.EncodingStruct:
		return array.NewStruct(dt.FieldNames(), dt.FieldTypes(), children, v, dtype.Nullability(dt.Nullable())), nil
	case array.EncodingExtension:
		return array.NewExtension(dt, children[0]), nil
	case constant.ID:
		val, err := scalar.DecodeMetadata(metadata)
		if err != nil {
			return nil, err
		}

		return constant.New(dt, val, length), nil
	case sparse.ID:
		fv, err := scalar.DecodeMetadata(metadata)
		if err != nil {
			return nil, err
		}

		return sparse.New(dt, children[0], children[1], fv, length), nil
	case runend.ID:
		return runend.FromParts(dt, length, metadata, children, v), nil
	case dict.ID:
		return dict.New(dt, children[0], children[1]), nil
	case bitpacked.ID:
		return bitpacked.FromParts(dt, length, metadata, children, buffers, v), nil
	case forenc.ID:
		return forenc.FromParts(dt, length, metadata, children, v), nil
	case delta.ID:
		return delta.FromParts(dt, length, metadata, children, buffers, v), nil
	case alp.ID:
		return alp.FromParts(dt, length, metadata, children, v), nil
	case alp.IDRD:
		return alp.FromPartsRD(dt, length, metadata, children, v), nil
	case fsst.ID:
		return fsst.FromParts(dt, length, metadata, children, v), nil
	case roaring.ID:
		return roaring.FromParts(dt, length, metadata, buffers, v), nil
	case chunked.ID:
		return chunked.New(dt, children), nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding id %d", errs.ErrInvalidSerde, id)
	}
}

func decodeUint32Buffer(b []byte, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	return out
}
