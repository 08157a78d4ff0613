package encode

import (
	"reflect"

	"github.com/nordiq/odatakit/internal/pkg/names"
	"github.com/nordiq/odatakit/pkg/odata"
	"github.com/nordiq/odatakit/pkg/odata/batch"
	"github.com/nordiq/odatakit/pkg/odata/edm"
	"github.com/nordiq/odatakit/pkg/odata/errors"
	"github.com/nordiq/odatakit/pkg/odata/wire"
)

// Entity serializes entity data against its declared type into a wire
// entry. Partial update methods first restrict the schema view to the
// supplied field names, so omitted fields stay out of the entry. Delete
// produces no body at all.
//
// Every supplied field must match a declared structural or navigation
// property after insensitive matching; either a complete entry is produced
// or nothing is.
func Entity(m edm.Model, t *edm.EntityType, data map[string]any, method odata.Method, ids *batch.Registry) (*wire.Entry, error) {
	if method == odata.MethodDelete {
		return nil, nil
	}

	if method.IsPartial() {
		dm := edm.Restrict(m, t, fieldNames(data))
		m, t = dm, dm.Delta()
	}

	entry := &wire.Entry{}

	for i := range t.Properties {
		p := &t.Properties[i]

		value, supplied := fieldValue(data, p.Name)
		if !supplied {
			continue
		}

		encoded, err := encodeValue(m, p, value)
		if err != nil {
			return nil, err
		}

		entry.AddMember(p.Name, encoded)
	}

	for i := range t.Navigations {
		nav := &t.Navigations[i]

		value, supplied := fieldValue(data, nav.Name)
		if !supplied || value == nil {
			// links with no provided target data are skipped entirely
			continue
		}

		link, err := Link(m, t, nav.Name, value, ids)
		if err != nil {
			return nil, err
		}

		entry.AddLink(link)
	}

	for fieldName := range data {
		if _, ok := t.Property(fieldName); ok {
			continue
		}
		if _, ok := t.Navigation(fieldName); ok {
			continue
		}
		return nil, errors.NewSchemaMismatchError(t.QualifiedName(), fieldName)
	}

	return entry, nil
}

func encodeValue(m edm.Model, p *edm.Property, value any) (any, error) {
	if p.IsCollection() {
		return encodeCollection(m, p, value)
	}

	return encodeElement(m, p, value)
}

func encodeElement(m edm.Model, p *edm.Property, value any) (any, error) {
	if kind, primitive := p.Kind(); primitive {
		// explicit nulls pass through unvalidated
		if value == nil {
			return nil, nil
		}
		return wire.Convert(value, kind)
	}

	if complexType, ok := m.EntityType(p.ElementTypeName()); ok {
		return encodeComplex(m, complexType, value)
	}

	// unknown kinds pass through unchanged
	return value, nil
}

func encodeCollection(m edm.Model, p *edm.Property, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return encodeElement(m, p, value)
	}

	// element order is preserved exactly as supplied
	encoded := make([]any, 0, rv.Len())

	for i := 0; i < rv.Len(); i++ {
		element, err := encodeElement(m, p, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, element)
	}

	return encoded, nil
}

func encodeComplex(m edm.Model, t *edm.EntityType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	data, ok := value.(map[string]any)
	if !ok {
		// structured value in an unknown shape, pass it through
		return value, nil
	}

	entry := &wire.Entry{TypeName: t.QualifiedName()}

	for i := range t.Properties {
		p := &t.Properties[i]

		value, supplied := fieldValue(data, p.Name)
		if !supplied {
			continue
		}

		encoded, err := encodeValue(m, p, value)
		if err != nil {
			return nil, err
		}

		entry.AddMember(p.Name, encoded)
	}

	for fieldName := range data {
		if _, ok := t.Property(fieldName); !ok {
			return nil, errors.NewSchemaMismatchError(t.QualifiedName(), fieldName)
		}
	}

	return entry, nil
}

func fieldNames(data map[string]any) []string {
	keep := make([]string, 0, len(data))
	for name := range data {
		keep = append(keep, name)
	}
	return keep
}

func fieldValue(data map[string]any, declaredName string) (any, bool) {
	for name, value := range data {
		if names.Match(name, declaredName) {
			return value, true
		}
	}
	return nil, false
}
