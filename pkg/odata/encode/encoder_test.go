package encode

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/matryer/is"
	"github.com/nordiq/odatakit/pkg/odata"
	"github.com/nordiq/odatakit/pkg/odata/edm"
	"github.com/nordiq/odatakit/pkg/odata/errors"
)

func testSchema() *edm.Schema {
	return &edm.Schema{
		Namespace: "NorthWind",
		Types: []*edm.EntityType{
			{
				Namespace: "NorthWind",
				Name:      "Order",
				Key:       []string{"Id"},
				Properties: []edm.Property{
					{Name: "Id", TypeName: "Edm.Int32"},
					{Name: "Total", TypeName: "Edm.Decimal"},
					{Name: "Tags", TypeName: "Collection(Edm.String)"},
					{Name: "ShipTo", TypeName: "NorthWind.Address"},
					{Name: "Note", TypeName: "Edm.String", Nullable: true},
				},
				Navigations: []edm.NavigationProperty{
					{Name: "Customer", TypeName: "NorthWind.Customer", Partner: "Orders"},
				},
			},
			{
				Namespace: "NorthWind",
				Name:      "Address",
				Properties: []edm.Property{
					{Name: "Street", TypeName: "Edm.String"},
					{Name: "City", TypeName: "Edm.String"},
				},
			},
			{
				Namespace: "NorthWind",
				Name:      "Customer",
				Key:       []string{"Id"},
				Properties: []edm.Property{
					{Name: "Id", TypeName: "Edm.String"},
				},
				Navigations: []edm.NavigationProperty{
					{Name: "Orders", TypeName: "Collection(NorthWind.Order)", Partner: "Customer"},
				},
			},
		},
		Sets: []*edm.EntitySet{
			{Name: "Orders", TypeName: "NorthWind.Order"},
			{Name: "Customers", TypeName: "NorthWind.Customer"},
		},
	}
}

func TestEncodeCoercesPrimitives(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{"Id": 7, "Total": "12.50"}, odata.MethodPost, nil)
	is.NoErr(err)
	is.Equal(len(entry.Members), 2)
	is.Equal(entry.Members[0].Name, "Id")
	is.Equal(entry.Members[0].Value, int32(7))
	is.Equal(entry.Members[1].Name, "Total")
	is.Equal(entry.Members[1].Value, json.Number("12.50"))
}

func TestEncodePartialUpdateRestrictsToSuppliedFields(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{"Total": "12.50"}, odata.MethodPatch, nil)
	is.NoErr(err)
	is.Equal(len(entry.Members), 1)
	is.Equal(entry.Members[0].Name, "Total")
	is.Equal(entry.Members[0].Value, json.Number("12.50"))
}

func TestEncodeFailsOnUndeclaredField(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	_, err := Entity(schema, order, map[string]any{"Id": 7, "Discount": 0.1}, odata.MethodPost, nil)
	is.True(stderrors.Is(err, errors.ErrSchemaMismatch))
}

func TestEncodeMatchesFieldNamesInsensitively(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{"id": 7, "TOTALS": "1"}, odata.MethodPost, nil)
	is.NoErr(err)
	is.Equal(len(entry.Members), 2)
	is.Equal(entry.Members[0].Name, "Id")
	is.Equal(entry.Members[1].Name, "Total")
}

func TestEncodePreservesCollectionOrder(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{"Tags": []any{"a", "b", "c"}}, odata.MethodPost, nil)
	is.NoErr(err)
	is.Equal(entry.Members[0].Value, []any{"a", "b", "c"})
}

func TestEncodeNestedComplexValue(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{
		"ShipTo": map[string]any{"Street": "Storgatan 1", "City": "Sundsvall"},
	}, odata.MethodPost, nil)
	is.NoErr(err)

	b, err := entry.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b), `{"ShipTo":{"@odata.type":"#NorthWind.Address","Street":"Storgatan 1","City":"Sundsvall"}}`)
}

func TestEncodeNestedComplexValueFailsOnUndeclaredSubField(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	_, err := Entity(schema, order, map[string]any{
		"ShipTo": map[string]any{"Street": "Storgatan 1", "Country": "SE"},
	}, odata.MethodPost, nil)
	is.True(stderrors.Is(err, errors.ErrSchemaMismatch))
}

func TestEncodeNullPassesThrough(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{"Note": nil}, odata.MethodPost, nil)
	is.NoErr(err)
	is.Equal(len(entry.Members), 1)
	is.Equal(entry.Members[0].Value, nil)
}

func TestEncodeDeleteProducesNoBody(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	entry, err := Entity(schema, order, map[string]any{"Id": 7}, odata.MethodDelete, nil)
	is.NoErr(err)
	is.Equal(entry, nil)
}

func TestEncodeIsIdempotent(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")
	data := map[string]any{"Id": 7, "Total": "12.50", "Tags": []any{"x", "y"}}

	first, err := Entity(schema, order, data, odata.MethodPost, nil)
	is.NoErr(err)
	second, err := Entity(schema, order, data, odata.MethodPost, nil)
	is.NoErr(err)

	b1, err := first.MarshalJSON()
	is.NoErr(err)
	b2, err := second.MarshalJSON()
	is.NoErr(err)
	is.Equal(string(b1), string(b2))
}

func TestEncodeFailsOnUncoercibleValue(t *testing.T) {
	is := is.New(t)

	schema := testSchema()
	order, _ := schema.EntityType("Order")

	_, err := Entity(schema, order, map[string]any{"Total": struct{}{}}, odata.MethodPost, nil)
	is.True(stderrors.Is(err, errors.ErrFormat))
}
