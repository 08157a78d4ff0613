package client

import (
	"context"
	"net/http"
	"strings"
	"testing"

	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"

	"github.com/matryer/is"
	"github.com/nordiq/odatakit/pkg/odata"
	"github.com/nordiq/odatakit/pkg/odata/edm"
	"github.com/nordiq/odatakit/pkg/odata/request"
	"github.com/nordiq/odatakit/pkg/odata/wire"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath
var body = expects.RequestBody

func testModel(t *testing.T) *edm.Schema {
	t.Helper()

	schema, err := edm.LoadModel(strings.NewReader(`
namespace: NorthWind
entityTypes:
  - name: Order
    key: [Id]
    properties:
      - name: Id
        type: Edm.Int32
        nullable: false
      - name: Total
        type: Edm.Decimal
    navigations:
      - name: Parent
        type: NorthWind.Order
entitySets:
  - name: Orders
    type: NorthWind.Order
`))
	if err != nil {
		t.Fatal(err)
	}

	return schema
}

func TestCreateEntity(t *testing.T) {
	is := is.New(t)

	locationHeader := "/Orders(7)"
	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/Orders"),
			body(`{"Id":7,"Total":12.50}`),
		),
		Returns(
			response.Location(locationHeader),
			response.Code(http.StatusCreated),
		),
	)
	defer s.Close()

	c := New(s.URL(), testModel(t))

	result, err := c.CreateEntity(context.Background(), "Orders", map[string]any{"Id": 7, "Total": "12.50"})

	is.NoErr(err)
	is.Equal(result.Location(), locationHeader)
}

func TestCreateEntityReturnsErrorOnBadRequest(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(response.Code(http.StatusBadRequest)),
	)
	defer s.Close()

	c := New(s.URL(), testModel(t))

	_, err := c.CreateEntity(context.Background(), "Orders", map[string]any{"Id": 7})

	is.True(err != nil)
}

func TestUpdateEntitySendsPartialBody(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPatch),
			path("/Orders(7)"),
			body(`{"Total":12.50}`),
		),
		Returns(response.Code(http.StatusNoContent)),
	)
	defer s.Close()

	c := New(s.URL(), testModel(t))

	err := c.UpdateEntity(context.Background(), "Orders", 7, map[string]any{"Total": "12.50"})

	is.NoErr(err)
}

func TestDeleteEntity(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodDelete),
			path("/Orders(7)"),
		),
		Returns(response.Code(http.StatusNoContent)),
	)
	defer s.Close()

	c := New(s.URL(), testModel(t))

	err := c.DeleteEntity(context.Background(), "Orders", 7)

	is.NoErr(err)
}

func TestLinkEntities(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPut),
			path("/Orders(7)/Parent/$ref"),
			body(`{"@odata.id":"Orders(3)"}`),
		),
		Returns(response.Code(http.StatusNoContent)),
	)
	defer s.Close()

	c := New(s.URL(), testModel(t))

	err := c.LinkEntities(context.Background(), "Orders(7)/Parent",
		wire.NewResolvedReference("Orders", "(3)"))

	is.NoErr(err)
}

func TestSubmitBatch(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/$batch"),
		),
		Returns(response.Code(http.StatusAccepted)),
	)
	defer s.Close()

	c := New(s.URL(), testModel(t))

	err := c.SubmitBatch(context.Background(), func(w *request.Writer) error {
		parent := map[string]any{"Total": "1"}
		child := map[string]any{"Total": "2", "Parent": parent}

		if _, _, err := w.WriteEntry(context.Background(), odata.MethodPost, "Orders", parent, "Orders"); err != nil {
			return err
		}
		_, _, err := w.WriteEntry(context.Background(), odata.MethodPost, "Orders", child, "Orders")
		return err
	})

	is.NoErr(err)
}
