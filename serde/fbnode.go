package serde

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/errs"
	"github.com/strata-db/strata/validity"
)

// Hand-written flatbuffer field layout for the Node, BufferEntry, and
// Batch tables. (The column file footer is not a flatbuffer; see
// encodeFooter in columnfile.go.) There is no .fbs schema and no
// generated accessor code in this module; buildBatchFB and parseBatchFB
// call flatbuffers.Builder and flatbuffers.Table directly at the slot
// level, the same primitives any generated Go code would reduce to.
//
// Node (one per array.Array node in the tree):
//
//	0 encodingID   uint8
//	1 dtype        []byte (opaque, see dtypecodec.go)
//	2 length       uint64
//	3 metadata     []byte
//	4 children     [Node] (nested tables)
//	5 bufferIdx    []uint32 (indices into the batch's buffer table)
//	6 validityKind uint8
//	7 validityMap  []byte (present only when validityKind == KindBitmap)
//
// BufferEntry (one per distinct buffer referenced by the tree):
//
//	0 offset       uint64 (byte offset into the heap region)
//	1 length       uint64 (decompressed byte length)
//	2 storedLength uint64 (bytes actually present in the heap)
//	3 codec        uint8  (compress.Algorithm)
//
// Batch (root table of a batch message's metadata bytes):
//
//	0 root        Node
//	1 bufferTable [BufferEntry]
//	2 rowCount    uint64
const (
	nodeSlotEncodingID   = 0
	nodeSlotDType        = 1
	nodeSlotLength       = 2
	nodeSlotMetadata     = 3
	nodeSlotChildren     = 4
	nodeSlotBufferIdx    = 5
	nodeSlotValidityKind = 6
	nodeSlotValidityMap  = 7
	nodeNumFields         = 8

	bufEntrySlotOffset       = 0
	bufEntrySlotLength       = 1
	bufEntrySlotStoredLength = 2
	bufEntrySlotCodec        = 3
	bufEntryNumFields        = 4

	batchSlotRoot        = 0
	batchSlotBufferTable = 1
	batchSlotRowCount    = 2
	batchNumFields       = 3
)

func vtableSlot(field int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT((field + 2) * 2)
}

// --- building ---

func buildNodeFB(b *flatbuffers.Builder, n *treeNode) flatbuffers.UOffsetT {
	childOffs := make([]flatbuffers.UOffsetT, len(n.children))
	for i, c := range n.children {
		childOffs[i] = buildNodeFB(b, c)
	}

	var childrenVec flatbuffers.UOffsetT
	if len(childOffs) > 0 {
		b.StartVector(4, len(childOffs), 4)
		for i := len(childOffs) - 1; i >= 0; i-- {
			b.PrependUOffsetT(childOffs[i])
		}
		childrenVec = b.EndVector(len(childOffs))
	}

	var bufIdxVec flatbuffers.UOffsetT
	if len(n.bufferIdx) > 0 {
		b.StartVector(4, len(n.bufferIdx), 4)
		for i := len(n.bufferIdx) - 1; i >= 0; i-- {
			b.PrependUint32(n.bufferIdx[i])
		}
		bufIdxVec = b.EndVector(len(n.bufferIdx))
	}

	dtypeOff := b.CreateByteVector(encodeDType(n.dt))

	var metadataOff flatbuffers.UOffsetT
	if len(n.metadata) > 0 {
		metadataOff = b.CreateByteVector(n.metadata)
	}

	var validityMapOff flatbuffers.UOffsetT
	if n.validity.Kind() == validity.KindBitmap {
		validityMapOff = b.CreateByteVector(n.validity.Bitmap())
	}

	b.StartObject(nodeNumFields)
	b.PrependUint8Slot(nodeSlotEncodingID, uint8(n.encodingID), 0)
	b.PrependUOffsetTSlot(nodeSlotDType, dtypeOff, 0)
	b.PrependUint64Slot(nodeSlotLength, uint64(n.length), 0)
	if metadataOff != 0 {
		b.PrependUOffsetTSlot(nodeSlotMetadata, metadataOff, 0)
	}
	if childrenVec != 0 {
		b.PrependUOffsetTSlot(nodeSlotChildren, childrenVec, 0)
	}
	if bufIdxVec != 0 {
		b.PrependUOffsetTSlot(nodeSlotBufferIdx, bufIdxVec, 0)
	}
	b.PrependUint8Slot(nodeSlotValidityKind, uint8(n.validity.Kind()), 0)
	if validityMapOff != 0 {
		b.PrependUOffsetTSlot(nodeSlotValidityMap, validityMapOff, 0)
	}

	return b.EndObject()
}

func buildBufferEntryFB(b *flatbuffers.Builder, e bufferEntry) flatbuffers.UOffsetT {
	b.StartObject(bufEntryNumFields)
	b.PrependUint64Slot(bufEntrySlotOffset, e.offset, 0)
	b.PrependUint64Slot(bufEntrySlotLength, e.length, 0)
	b.PrependUint64Slot(bufEntrySlotStoredLength, e.storedLength, 0)
	b.PrependUint8Slot(bufEntrySlotCodec, uint8(e.codec), 0)

	return b.EndObject()
}

// buildBatchFB assembles the Batch root table for one batch message:
// root's encoding tree plus the buffer table, and returns the finished
// flatbuffer bytes.
func buildBatchFB(root *treeNode, entries []bufferEntry, rowCount uint64) []byte {
	b := flatbuffers.NewBuilder(1024)

	rootOff := buildNodeFB(b, root)

	entryOffs := make([]flatbuffers.UOffsetT, len(entries))
	for i, e := range entries {
		entryOffs[i] = buildBufferEntryFB(b, e)
	}

	var bufTableVec flatbuffers.UOffsetT
	if len(entryOffs) > 0 {
		b.StartVector(4, len(entryOffs), 4)
		for i := len(entryOffs) - 1; i >= 0; i-- {
			b.PrependUOffsetT(entryOffs[i])
		}
		bufTableVec = b.EndVector(len(entryOffs))
	}

	b.StartObject(batchNumFields)
	b.PrependUOffsetTSlot(batchSlotRoot, rootOff, 0)
	if bufTableVec != 0 {
		b.PrependUOffsetTSlot(batchSlotBufferTable, bufTableVec, 0)
	}
	b.PrependUint64Slot(batchSlotRowCount, rowCount, 0)
	batchOff := b.EndObject()

	b.Finish(batchOff)

	return b.FinishedBytes()
}

// --- reading ---

func rootTable(buf []byte) flatbuffers.Table {
	n := flatbuffers.GetUOffsetT(buf)

	return flatbuffers.Table{Bytes: buf, Pos: n}
}

func tableUint8Field(t flatbuffers.Table, field int) uint8 {
	o := flatbuffers.UOffsetT(t.Offset(vtableSlot(field)))
	if o == 0 {
		return 0
	}

	return t.GetUint8(o + t.Pos)
}

func tableUint64Field(t flatbuffers.Table, field int) uint64 {
	o := flatbuffers.UOffsetT(t.Offset(vtableSlot(field)))
	if o == 0 {
		return 0
	}

	return t.GetUint64(o + t.Pos)
}

// tableByteVectorField reads a []byte vector field. Table.ByteVector adds
// t.Pos internally, so it takes the raw vtable-relative offset, unlike
// GetUint8/GetUint64/Indirect above which take an absolute position the
// caller must add t.Pos to.
func tableByteVectorField(t flatbuffers.Table, field int) []byte {
	o := flatbuffers.UOffsetT(t.Offset(vtableSlot(field)))
	if o == 0 {
		return nil
	}

	return t.ByteVector(o)
}

// tableUint32VectorField reads a []uint32 vector field. Table.VectorLen
// and Table.Vector both add t.Pos internally, so they take the raw
// vtable-relative offset, same as ByteVector above.
func tableUint32VectorField(t flatbuffers.Table, field int) []uint32 {
	o := flatbuffers.UOffsetT(t.Offset(vtableSlot(field)))
	if o == 0 {
		return nil
	}

	n := t.VectorLen(o)
	out := make([]uint32, n)
	base := t.Vector(o)
	for i := 0; i < n; i++ {
		out[i] = t.GetUint32(base + flatbuffers.UOffsetT(i*4))
	}

	return out
}

// tableObjectVectorField returns the absolute Table positions of a
// vector-of-tables field's elements (Node children, Batch's buffer
// table). Indirect takes an absolute position (it does not add t.Pos
// internally), but the vector base returned by Vector already is one.
func tableObjectVectorField(t flatbuffers.Table, field int) []flatbuffers.UOffsetT {
	o := flatbuffers.UOffsetT(t.Offset(vtableSlot(field)))
	if o == 0 {
		return nil
	}

	n := t.VectorLen(o)
	out := make([]flatbuffers.UOffsetT, n)
	base := t.Vector(o)
	for i := 0; i < n; i++ {
		elemPos := base + flatbuffers.UOffsetT(i*4)
		out[i] = t.Indirect(elemPos)
	}

	return out
}

func readNodeFB(buf []byte, pos flatbuffers.UOffsetT) (*treeNode, error) {
	t := flatbuffers.Table{Bytes: buf, Pos: pos}

	n := &treeNode{
		encodingID: array.EncodingID(tableUint8Field(t, nodeSlotEncodingID)),
		length:     int(tableUint64Field(t, nodeSlotLength)),
		metadata:   tableByteVectorField(t, nodeSlotMetadata),
		bufferIdx:  tableUint32VectorField(t, nodeSlotBufferIdx),
	}

	dt, _, err := decodeDType(tableByteVectorField(t, nodeSlotDType))
	if err != nil {
		return nil, err
	}
	n.dt = dt

	for _, childPos := range tableObjectVectorField(t, nodeSlotChildren) {
		child, err := readNodeFB(buf, childPos)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}

	kind := validity.Kind(tableUint8Field(t, nodeSlotValidityKind))
	switch kind {
	case validity.KindNonNullable:
		n.validity = validity.NonNullable(n.length)
	case validity.KindAllValid:
		n.validity = validity.AllValid(n.length)
	case validity.KindAllInvalid:
		n.validity = validity.AllInvalid(n.length)
	case validity.KindBitmap:
		bm := tableByteVectorField(t, nodeSlotValidityMap)
		v, err := validity.NewBitmap(bm, n.length)
		if err != nil {
			return nil, err
		}
		n.validity = v
	default:
		return nil, fmt.Errorf("%w: unknown validity kind %d", errs.ErrInvalidSerde, kind)
	}

	return n, nil
}

type bufferEntry struct {
	offset       uint64
	length       uint64
	storedLength uint64
	codec        uint8
}

func readBufferEntryFB(t flatbuffers.Table) bufferEntry {
	return bufferEntry{
		offset:       tableUint64Field(t, bufEntrySlotOffset),
		length:       tableUint64Field(t, bufEntrySlotLength),
		storedLength: tableUint64Field(t, bufEntrySlotStoredLength),
		codec:        tableUint8Field(t, bufEntrySlotCodec),
	}
}

// parseBatchFB parses a batch message's flatbuffer metadata bytes into
// its root treeNode, buffer table, and row count.
func parseBatchFB(buf []byte) (*treeNode, []bufferEntry, uint64, error) {
	if len(buf) < 4 {
		return nil, nil, 0, fmt.Errorf("%w: batch metadata too short", errs.ErrBadFlatbuffer)
	}

	t := rootTable(buf)

	rootOff := flatbuffers.UOffsetT(t.Offset(vtableSlot(batchSlotRoot)))
	if rootOff == 0 {
		return nil, nil, 0, fmt.Errorf("%w: batch missing root node", errs.ErrBadFlatbuffer)
	}
	rootPos := t.Indirect(rootOff + t.Pos)
	root, err := readNodeFB(buf, rootPos)
	if err != nil {
		return nil, nil, 0, err
	}

	var entries []bufferEntry
	for _, pos := range tableObjectVectorField(t, batchSlotBufferTable) {
		entries = append(entries, readBufferEntryFB(flatbuffers.Table{Bytes: buf, Pos: pos}))
	}

	rowCount := tableUint64Field(t, batchSlotRowCount)

	return root, entries, rowCount, nil
}
