package mapping

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformGolden(t *testing.T) {
	src, err := NewDocumentSourceFromJSON([]byte(`{
		"name": " Acme Corp ",
		"contact": {"email": "Ops@Example.com, billing@example.com"},
		"country": "USA",
		"issued_at": "2024-03-15",
		"lines": [
			{"sku": "A-1", "qty": "2"},
			{"sku": "B-2", "qty": 5}
		]
	}`))
	require.NoError(t, err)

	fields := []Field{
		Literal("source", TypeString, "booksync"),
		{SourcePath: "name", DestinationPath: "customer/name", Type: TypeString},
		{SourcePath: "contact/email", DestinationPath: "customer/emails", Type: TypeEmailList},
		{SourcePath: "country", DestinationPath: "customer/address/country", Type: TypeCountry},
		{SourcePath: "issued_at", DestinationPath: "invoice/date", Type: TypeDateUnix},
		{SourcePath: "lines[]/sku", DestinationPath: "lines[]/item", Type: TypeString},
		{SourcePath: "lines[]/qty", DestinationPath: "lines[]/quantity", Type: TypeFloat},
		{SourcePath: "missing/notes", DestinationPath: "notes", Type: TypeString, Nulls: NullIgnore},
		{SourcePath: "missing/flag", DestinationPath: "cleared", Type: TypeString, Nulls: NullSet},
	}

	out, err := Transform(fields, src, Options{})
	require.NoError(t, err)

	data, err := json.MarshalIndent(out, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithNameSuffix(".golden"))
	g.Assert(t, "transform_invoice", data)
}

func TestTransformNullBehavior(t *testing.T) {
	src := NewDocumentSource(map[string]any{"present": "x"})

	out, err := Transform([]Field{
		{SourcePath: "absent", DestinationPath: "skipped", Type: TypeString, Nulls: NullIgnore},
		{SourcePath: "absent", DestinationPath: "written", Type: TypeString, Nulls: NullSet},
	}, src, Options{})
	require.NoError(t, err)

	_, skipped := out["skipped"]
	assert.False(t, skipped)

	v, written := out["written"]
	assert.True(t, written)
	assert.Nil(t, v)
}

func TestTransformRepeatingGroupMerge(t *testing.T) {
	src := NewDocumentSource(map[string]any{
		"items": []any{
			map[string]any{"sku": "A", "qty": json.Number("1")},
			map[string]any{"sku": "B", "qty": json.Number("2")},
			map[string]any{"sku": "C", "qty": json.Number("3")},
		},
	})

	out, err := Transform([]Field{
		{SourcePath: "items[]/sku", DestinationPath: "lines[]/code", Type: TypeString},
		{SourcePath: "items[]/qty", DestinationPath: "lines[]/count", Type: TypeFloat},
	}, src, Options{})
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"code": "A", "count": 1.0},
		{"code": "B", "count": 2.0},
		{"code": "C", "count": 3.0},
	}, out["lines"])
}

func TestTransformMarkupSource(t *testing.T) {
	src, err := NewMarkupSourceFromXML([]byte(`
		<Payment>
			<Ref>PAY-9</Ref>
			<Amount>50.00</Amount>
			<Apply><InvoiceRef>INV-1</InvoiceRef></Apply>
			<Apply><InvoiceRef>INV-2</InvoiceRef></Apply>
		</Payment>`))
	require.NoError(t, err)

	out, err := Transform([]Field{
		{SourcePath: "Ref", DestinationPath: "external_id", Type: TypeString},
		{SourcePath: "Amount", DestinationPath: "amount", Type: TypeFloat},
		{SourcePath: "Apply[]/InvoiceRef", DestinationPath: "applications[]/invoice", Type: TypeString},
	}, src, Options{})
	require.NoError(t, err)

	assert.Equal(t, "PAY-9", out["external_id"])
	assert.Equal(t, 50.0, out["amount"])
	assert.Equal(t, []map[string]any{
		{"invoice": "INV-1"},
		{"invoice": "INV-2"},
	}, out["applications"])
}

func TestTransformInvalidRule(t *testing.T) {
	src := NewDocumentSource(map[string]any{})
	_, err := Transform([]Field{
		{SourcePath: "a", DestinationPath: "b", Type: "NOPE"},
	}, src, Options{})
	assert.Error(t, err)
}
