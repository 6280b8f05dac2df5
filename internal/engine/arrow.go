package engine

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var timestampType = &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}

// ArrowSchema maps the table schema onto Arrow types.
func (t *Table) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		var dt arrow.DataType
		switch c.Kind {
		case KindFloat:
			dt = arrow.PrimitiveTypes.Float64
		case KindString:
			dt = arrow.BinaryTypes.String
		default:
			dt = timestampType
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrow builds one Arrow record holding the whole table. Missing values become nulls.
// The caller must Release the record.
func ToArrow(t *Table, mem memory.Allocator) arrow.Record {
	builder := array.NewRecordBuilder(mem, t.ArrowSchema())
	defer builder.Release()

	for i, c := range t.cols {
		switch c.Kind {
		case KindFloat:
			fb := builder.Field(i).(*array.Float64Builder)
			for _, v := range c.Floats {
				if math.IsNaN(v) {
					fb.AppendNull()
				} else {
					fb.Append(v)
				}
			}
		case KindString:
			sb := builder.Field(i).(*array.StringBuilder)
			for _, v := range c.Strings {
				if v == "" {
					sb.AppendNull()
				} else {
					sb.Append(v)
				}
			}
		default:
			tb := builder.Field(i).(*array.TimestampBuilder)
			for _, v := range c.Times {
				if v.IsZero() {
					tb.AppendNull()
				} else {
					tb.Append(arrow.Timestamp(v.UnixMilli()))
				}
			}
		}
	}
	return builder.NewRecord()
}

// FromArrow copies Arrow records sharing one schema into a table.
// Integer columns widen to float; date and timestamp columns become times.
func FromArrow(schema *arrow.Schema, records ...arrow.Record) (*Table, error) {
	cols := make([]*Column, schema.NumFields())
	for i, f := range schema.Fields() {
		switch f.Type.ID() {
		case arrow.FLOAT64, arrow.FLOAT32, arrow.INT64, arrow.INT32, arrow.INT16, arrow.INT8:
			cols[i] = NewFloatColumn(f.Name, nil)
		case arrow.STRING, arrow.LARGE_STRING:
			cols[i] = NewStringColumn(f.Name, nil)
		case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
			cols[i] = NewTimeColumn(f.Name, nil)
		default:
			return nil, fmt.Errorf("column %q: unsupported arrow type %s", f.Name, f.Type)
		}
	}

	for _, rec := range records {
		for i := range cols {
			if err := appendArrow(cols[i], rec.Column(i)); err != nil {
				return nil, err
			}
		}
	}
	return NewTable(cols...)
}

func appendArrow(c *Column, arr arrow.Array) error {
	n := arr.Len()
	for j := 0; j < n; j++ {
		null := arr.IsNull(j)
		switch a := arr.(type) {
		case *array.Float64:
			c.Floats = append(c.Floats, nullFloat(null, a.Value(j)))
		case *array.Float32:
			c.Floats = append(c.Floats, nullFloat(null, float64(a.Value(j))))
		case *array.Int64:
			c.Floats = append(c.Floats, nullFloat(null, float64(a.Value(j))))
		case *array.Int32:
			c.Floats = append(c.Floats, nullFloat(null, float64(a.Value(j))))
		case *array.Int16:
			c.Floats = append(c.Floats, nullFloat(null, float64(a.Value(j))))
		case *array.Int8:
			c.Floats = append(c.Floats, nullFloat(null, float64(a.Value(j))))
		case *array.String:
			c.Strings = append(c.Strings, nullString(null, a.Value(j)))
		case *array.LargeString:
			c.Strings = append(c.Strings, nullString(null, a.Value(j)))
		case *array.Timestamp:
			var ts time.Time
			if !null {
				unit := a.DataType().(*arrow.TimestampType).Unit
				ts = a.Value(j).ToTime(unit)
			}
			c.Times = append(c.Times, ts)
		case *array.Date32:
			var ts time.Time
			if !null {
				ts = a.Value(j).ToTime()
			}
			c.Times = append(c.Times, ts)
		case *array.Date64:
			var ts time.Time
			if !null {
				ts = a.Value(j).ToTime()
			}
			c.Times = append(c.Times, ts)
		default:
			return fmt.Errorf("column %q: unsupported arrow array %T", c.Name, arr)
		}
	}
	return nil
}

func nullFloat(null bool, v float64) float64 {
	if null {
		return math.NaN()
	}
	return v
}

func nullString(null bool, v string) string {
	if null {
		return ""
	}
	return v
}

// WriteArrow writes the table as an Arrow IPC file.
func WriteArrow(w io.Writer, t *Table) error {
	mem := memory.NewGoAllocator()
	writer, err := ipc.NewFileWriter(w, ipc.WithSchema(t.ArrowSchema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create Arrow file writer: %w", err)
	}

	rec := ToArrow(t, mem)
	defer rec.Release()
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write record to Arrow file: %w", err)
	}
	return writer.Close()
}

// ReadArrow reads every record batch of an Arrow IPC file into one table.
func ReadArrow(r ipc.ReadAtSeeker) (*Table, error) {
	reader, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	records := make([]arrow.Record, 0, reader.NumRecords())
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.RecordAt(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d from file: %w", i, err)
		}
		records = append(records, rec)
	}
	return FromArrow(reader.Schema(), records...)
}
