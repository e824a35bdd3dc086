package engine

import (
	"bytes"
	"testing"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	defs, err := Build(scenarioDataset())
	require.NoError(t, err)

	rec := defs.Record(mem)
	defer rec.Release()

	assert.Equal(t, int64(3), rec.NumRows())
	require.Equal(t, int64(3), rec.NumCols())
	assert.Equal(t, OrdinalField, rec.ColumnName(0))
	assert.Equal(t, "definition_diet", rec.ColumnName(1))
	assert.Equal(t, "property_mass", rec.ColumnName(2))

	ords := rec.Column(0).(*array.Int32)
	diet := rec.Column(1).(*array.String)
	mass := rec.Column(2).(*array.Float64)
	for g := 0; g < 3; g++ {
		assert.Equal(t, int32(g), ords.Value(g))
		want, _ := defs.TraitValue(g, "diet")
		assert.Equal(t, want, diet.Value(g))
		wantMass, _ := defs.PropertyValue(g, "mass")
		assert.Equal(t, wantMass, mass.Value(g))
	}
}

func TestWriteIPC(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	defs, err := Build(scenarioDataset())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, defs.WriteIPC(&buf, mem))

	rdr, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer rdr.Release()

	assert.True(t, defs.Schema().Equal(rdr.Schema()))
	require.True(t, rdr.Next())
	rec := rdr.Record()
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, "carnivore", rec.Column(1).(*array.String).Value(1))
	assert.False(t, rdr.Next())
}
