package serde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dtype"
)

func roundTripDType(t *testing.T, dt dtype.DType) dtype.DType {
	t.Helper()

	b := encodeDType(dt)
	got, used, err := decodeDType(b)
	require.NoError(t, err)
	assert.Equal(t, len(b), used)

	return got
}

func TestDTypeCodecScalarKinds(t *testing.T) {
	cases := []dtype.DType{
		dtype.Null(),
		dtype.Bool(dtype.NonNullable),
		dtype.Bool(dtype.Nullable),
		dtype.Utf8(dtype.Nullable),
		dtype.Binary(dtype.NonNullable),
		dtype.Primitive(dtype.I32, dtype.Nullable),
		dtype.Primitive(dtype.F64, dtype.NonNullable),
		dtype.Primitive(dtype.U8, dtype.Nullable),
	}

	for _, dt := range cases {
		got := roundTripDType(t, dt)
		assert.True(t, got.Equal(dt), "expected %s, got %s", dt, got)
	}
}

func TestDTypeCodecList(t *testing.T) {
	dt := dtype.List(dtype.Primitive(dtype.I64, dtype.NonNullable), dtype.Nullable)
	got := roundTripDType(t, dt)
	assert.True(t, got.Equal(dt))
}

func TestDTypeCodecStruct(t *testing.T) {
	dt := dtype.Struct(
		[]string{"id", "name", "scores"},
		[]dtype.DType{
			dtype.Primitive(dtype.I64, dtype.NonNullable),
			dtype.Utf8(dtype.Nullable),
			dtype.List(dtype.Primitive(dtype.F32, dtype.NonNullable), dtype.Nullable),
		},
		dtype.NonNullable,
	)

	got := roundTripDType(t, dt)
	assert.True(t, got.Equal(dt))
	assert.Equal(t, []string{"id", "name", "scores"}, got.FieldNames())
}

func TestDTypeCodecNestedStruct(t *testing.T) {
	inner := dtype.Struct([]string{"x", "y"}, []dtype.DType{
		dtype.Primitive(dtype.F64, dtype.NonNullable),
		dtype.Primitive(dtype.F64, dtype.NonNullable),
	}, dtype.Nullable)

	outer := dtype.Struct([]string{"point", "label"}, []dtype.DType{
		inner,
		dtype.Utf8(dtype.NonNullable),
	}, dtype.NonNullable)

	got := roundTripDType(t, outer)
	assert.True(t, got.Equal(outer))
}

func TestDTypeCodecExtension(t *testing.T) {
	dt := dtype.Extension("strata.timestamp", []byte("unit=ns"), dtype.Primitive(dtype.I64, dtype.NonNullable), dtype.Nullable)

	got := roundTripDType(t, dt)
	assert.True(t, got.Equal(dt))
	assert.Equal(t, "strata.timestamp", got.ExtensionID())
	assert.Equal(t, []byte("unit=ns"), got.ExtensionMetadata())
}

func TestDTypeCodecTruncatedInput(t *testing.T) {
	_, _, err := decodeDType(nil)
	assert.Error(t, err)

	_, _, err = decodeDType([]byte{byte(dtype.KindStruct), 0, 0, 0})
	assert.Error(t, err)
}
