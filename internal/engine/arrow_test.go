package engine

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrowSchema(t *testing.T) {
	schema := salesFixture().ArrowSchema()
	require.Equal(t, 6, schema.NumFields())
	assert.Equal(t, arrow.FixedWidthTypes.Timestamp_ms.ID(), schema.Field(0).Type.ID())
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(1).Type)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(2).Type)
}

func TestToArrowMarksMissingAsNull(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := ToArrow(salesFixture(), mem)
	defer rec.Release()

	assert.Equal(t, int64(5), rec.NumRows())
	assert.Equal(t, 1, rec.Column(4).NullN(), "revenue")
	assert.Equal(t, 1, rec.Column(3).NullN(), "region")
}

func TestArrowRoundTrip(t *testing.T) {
	tbl := salesFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, tbl))

	back, err := ReadArrow(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, tbl.Schema(), back.Schema())
	require.Equal(t, tbl.Len(), back.Len())

	for r := 0; r < tbl.Len(); r++ {
		assert.Equal(t, tbl.Row(r), back.Row(r), "row %d", r)
	}
	revs, _ := back.Floats(ColRevenue)
	assert.True(t, math.IsNaN(revs[3]))

	dates, _ := back.Times(ColDate)
	assert.True(t, dates[0].Equal(day("2024-01-05")))
	assert.Equal(t, time.UTC, dates[0].Location())
}

func TestReadTableArrow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, salesFixture()))

	tbl, err := ReadTable(buf.Bytes(), FormatArrow)
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.Len())
}
