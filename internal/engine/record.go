package engine

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// OrdinalField names the ordinal column of exported records.
const OrdinalField = "ordinal"

// Schema describes the exported table: ordinal, then definition_<trait>
// strings, then property_<name> float64s, each group in name order.
func (d *Definitions) Schema() *arrow.Schema {
	traits, props := d.traits.Names(), d.properties.Names()
	fields := make([]arrow.Field, 0, 1+len(traits)+len(props))
	fields = append(fields, arrow.Field{Name: OrdinalField, Type: arrow.PrimitiveTypes.Int32})
	for _, t := range traits {
		fields = append(fields, arrow.Field{Name: "definition_" + t, Type: arrow.BinaryTypes.String})
	}
	for _, p := range props {
		fields = append(fields, arrow.Field{Name: "property_" + p, Type: arrow.PrimitiveTypes.Float64})
	}
	return arrow.NewSchema(fields, nil)
}

// Record builds the whole table as one arrow record. The caller releases it.
func (d *Definitions) Record(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	b := array.NewRecordBuilder(mem, d.Schema())
	defer b.Release()

	ordinals := make([]int32, d.rows)
	for i := range ordinals {
		ordinals[i] = int32(i)
	}
	b.Field(0).(*array.Int32Builder).AppendValues(ordinals, nil)

	col := 1
	for _, t := range d.traits.Names() {
		b.Field(col).(*array.StringBuilder).AppendValues(d.traits.values[t], nil)
		col++
	}
	for _, p := range d.properties.Names() {
		b.Field(col).(*array.Float64Builder).AppendValues(d.properties.values[p], nil)
		col++
	}
	return b.NewRecord()
}

// WriteIPC streams the table to w in the arrow IPC stream format.
func (d *Definitions) WriteIPC(w io.Writer, mem memory.Allocator) error {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rec := d.Record(mem)
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		_ = iw.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("close arrow stream: %w", err)
	}
	return nil
}
