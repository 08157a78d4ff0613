package edm

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestLoadModel(t *testing.T) {
	is := is.New(t)

	schema, err := LoadModel(strings.NewReader(modelYAML))
	is.NoErr(err)
	is.Equal(schema.Namespace, "NorthWind")

	order, ok := schema.EntityType("NorthWind.Order")
	is.True(ok)
	is.Equal(order.QualifiedName(), "NorthWind.Order")
	is.Equal(len(order.Properties), 3)
	is.Equal(order.Key, []string{"Id"})
	is.True(order.RequiresETag)

	total, ok := order.Property("total")
	is.True(ok)
	is.Equal(total.TypeName, "Edm.Decimal")
}

func TestEntityTypeLookupIsInsensitive(t *testing.T) {
	is := is.New(t)

	schema, err := LoadModel(strings.NewReader(modelYAML))
	is.NoErr(err)

	_, ok := schema.EntityType("order")
	is.True(ok)

	_, ok = schema.EntityType("orders")
	is.True(ok)

	_, ok = schema.EntityType("Invoice")
	is.True(!ok)
}

func TestEntitySetForType(t *testing.T) {
	is := is.New(t)

	schema, err := LoadModel(strings.NewReader(modelYAML))
	is.NoErr(err)

	set, ok := schema.EntitySetForType("NorthWind.Employee")
	is.True(ok)
	is.Equal(set.Name, "Employees")

	set, ok = schema.EntitySetForType("Order")
	is.True(ok)
	is.Equal(set.Name, "Orders")
}

func TestFormatKeySingleInteger(t *testing.T) {
	is := is.New(t)

	schema, err := LoadModel(strings.NewReader(modelYAML))
	is.NoErr(err)

	employee, _ := schema.EntityType("Employee")

	key, err := FormatKey(employee, map[string]any{"Id": 3, "Name": "x"})
	is.NoErr(err)
	is.Equal(key, "(3)")
}

func TestFormatKeyComposite(t *testing.T) {
	is := is.New(t)

	item := &EntityType{
		Namespace: "NorthWind",
		Name:      "OrderItem",
		Key:       []string{"OrderId", "ProductId"},
	}

	key, err := FormatKey(item, map[string]any{"ProductId": 2, "OrderId": 1})
	is.NoErr(err)
	is.Equal(key, "(OrderId=1,ProductId=2)")
}

func TestFormatKeyValueQuotesStrings(t *testing.T) {
	is := is.New(t)

	is.Equal(FormatKeyValue("ALFKI"), "'ALFKI'")
	is.Equal(FormatKeyValue("O'Brien"), "'O''Brien'")
	is.Equal(FormatKeyValue(7), "7")
	is.Equal(FormatKeyValue(true), "true")
}

func TestNavigationPartnerResolution(t *testing.T) {
	is := is.New(t)

	schema, err := LoadModel(strings.NewReader(modelYAML))
	is.NoErr(err)

	order, _ := schema.EntityType("Order")
	customer, ok := order.Navigation("Customer")
	is.True(ok)
	is.True(!customer.Many())

	partner, ok := PartnerOf(schema, customer)
	is.True(ok)
	is.Equal(partner.Name, "Orders")
	is.True(partner.Many())
}

var modelYAML = `
namespace: NorthWind
entityTypes:
  - name: Order
    key: [Id]
    etag: true
    properties:
      - name: Id
        type: Edm.Int32
        nullable: false
      - name: Total
        type: Edm.Decimal
      - name: Tags
        type: Collection(Edm.String)
    navigations:
      - name: Customer
        type: NorthWind.Customer
        partner: Orders
  - name: Customer
    key: [Id]
    properties:
      - name: Id
        type: Edm.String
        nullable: false
      - name: Name
        type: Edm.String
    navigations:
      - name: Orders
        type: Collection(NorthWind.Order)
        partner: Customer
        dependents: [CustomerId]
        onDelete: Cascade
  - name: Employee
    key: [Id]
    properties:
      - name: Id
        type: Edm.Int32
        nullable: false
      - name: Name
        type: Edm.String
    navigations:
      - name: Manager
        type: NorthWind.Employee
entitySets:
  - name: Orders
    type: NorthWind.Order
  - name: Customers
    type: NorthWind.Customer
  - name: Employees
    type: NorthWind.Employee
`
