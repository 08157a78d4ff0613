package encode

import (
	"reflect"

	"github.com/nordiq/odatakit/pkg/odata/batch"
	"github.com/nordiq/odatakit/pkg/odata/edm"
	"github.com/nordiq/odatakit/pkg/odata/errors"
	"github.com/nordiq/odatakit/pkg/odata/wire"
)

// Link encodes one navigation property value as a reference link. Targets
// that have been queued in the current batch resolve to their content-id
// ($n); everything else resolves to entity set name plus formatted key.
func Link(m edm.Model, owner *edm.EntityType, linkName string, value any, ids *batch.Registry) (wire.Link, error) {
	nav, ok := owner.Navigation(linkName)
	if !ok {
		return wire.Link{}, errors.NewSchemaMismatchError(owner.QualifiedName(), linkName)
	}

	targetType, ok := m.EntityType(nav.TargetTypeName())
	if !ok {
		return wire.Link{}, errors.NewMissingNavigationTargetError(nav.TargetTypeName())
	}

	link := wire.Link{
		Name: nav.Name,
		Many: nav.Many(),
	}

	for _, target := range linkTargets(value) {
		ref, err := referenceFor(m, targetType, target, ids)
		if err != nil {
			return wire.Link{}, err
		}
		link.Refs = append(link.Refs, ref)
	}

	return link, nil
}

func referenceFor(m edm.Model, targetType *edm.EntityType, target any, ids *batch.Registry) (wire.Reference, error) {
	data, isMap := target.(map[string]any)

	if isMap && ids != nil {
		if id, pending := ids.ContentID(data); pending {
			return wire.NewPendingReference(id), nil
		}
	}

	set, ok := m.EntitySetForType(targetType.QualifiedName())
	if !ok {
		return nil, errors.NewMissingNavigationTargetError(targetType.QualifiedName())
	}

	if !isMap {
		// a bare value is taken to be the single key field
		if len(targetType.Key) != 1 {
			return nil, errors.NewSchemaMismatchError(targetType.QualifiedName(), "<key>")
		}
		return wire.NewResolvedReference(set.Name, "("+edm.FormatKeyValue(target)+")"), nil
	}

	key, err := edm.FormatKey(targetType, data)
	if err != nil {
		return nil, err
	}

	return wire.NewResolvedReference(set.Name, key), nil
}

func linkTargets(value any) []any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}

	targets := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		targets = append(targets, rv.Index(i).Interface())
	}

	return targets
}
