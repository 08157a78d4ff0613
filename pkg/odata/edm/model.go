package edm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nordiq/odatakit/internal/pkg/names"
	"github.com/nordiq/odatakit/pkg/odata/errors"
	"github.com/nordiq/odatakit/pkg/odata/wire"
)

// Model is the queryable schema catalog that drives encoding. The concrete
// implementation is usually a *Schema loaded from metadata, but partial
// updates wrap it in a delta overlay, so everything downstream goes through
// this interface.
type Model interface {
	EntityType(name string) (*EntityType, bool)
	EntitySet(name string) (*EntitySet, bool)
	EntitySetForType(typeName string) (*EntitySet, bool)
}

type EntityType struct {
	Namespace    string
	Name         string
	Key          []string
	Properties   []Property
	Navigations  []NavigationProperty
	RequiresETag bool
}

func (t *EntityType) QualifiedName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Property resolves a declared structural property by case and
// pluralization insensitive name match.
func (t *EntityType) Property(name string) (*Property, bool) {
	for i := range t.Properties {
		if names.Match(t.Properties[i].Name, name) {
			return &t.Properties[i], true
		}
	}
	return nil, false
}

// Navigation resolves a declared navigation property the same way.
func (t *EntityType) Navigation(name string) (*NavigationProperty, bool) {
	for i := range t.Navigations {
		if names.Match(t.Navigations[i].Name, name) {
			return &t.Navigations[i], true
		}
	}
	return nil, false
}

type Property struct {
	Name     string
	TypeName string
	Nullable bool
}

func (p Property) IsCollection() bool {
	return isCollectionTypeName(p.TypeName)
}

// ElementTypeName unwraps one level of Collection(...) if present.
func (p Property) ElementTypeName() string {
	return elementTypeName(p.TypeName)
}

// Kind returns the primitive wire kind for the property's element type, or
// false if the element type is a complex (or otherwise non-primitive) type.
func (p Property) Kind() (wire.Kind, bool) {
	return wire.KindFromTypeName(p.ElementTypeName())
}

type NavigationProperty struct {
	Name       string
	TypeName   string
	Partner    string
	Dependents []string
	OnDelete   string
}

// Many reports whether the navigation targets a collection.
func (n NavigationProperty) Many() bool {
	return isCollectionTypeName(n.TypeName)
}

// TargetTypeName unwraps one level of Collection(...) if present.
func (n NavigationProperty) TargetTypeName() string {
	return elementTypeName(n.TypeName)
}

type EntitySet struct {
	Name     string
	TypeName string
}

// Schema is an immutable catalog of entity types and entity sets, shared
// between encodes.
type Schema struct {
	Namespace string
	Types     []*EntityType
	Sets      []*EntitySet
}

func (s *Schema) EntityType(name string) (*EntityType, bool) {
	for _, t := range s.Types {
		if strings.EqualFold(t.QualifiedName(), name) || names.Match(t.Name, name) {
			return t, true
		}
	}
	return nil, false
}

func (s *Schema) EntitySet(name string) (*EntitySet, bool) {
	for _, set := range s.Sets {
		if names.Match(set.Name, name) {
			return set, true
		}
	}
	return nil, false
}

// EntitySetForType locates the entity set whose element type matches the
// given type name, insensitively.
func (s *Schema) EntitySetForType(typeName string) (*EntitySet, bool) {
	for _, set := range s.Sets {
		if strings.EqualFold(set.TypeName, typeName) || names.Match(unqualify(set.TypeName), unqualify(typeName)) {
			return set, true
		}
	}
	return nil, false
}

// PartnerOf resolves the navigation property on the target type that the
// given navigation declares as its partner, if any.
func PartnerOf(m Model, nav *NavigationProperty) (*NavigationProperty, bool) {
	if nav.Partner == "" {
		return nil, false
	}

	target, ok := m.EntityType(nav.TargetTypeName())
	if !ok {
		return nil, false
	}

	return target.Navigation(nav.Partner)
}

// FormatKey formats the declared key fields of an entity into a URI
// literal key segment, e.g. (3), ('ALFKI') or (OrderID=1,ProductID=2).
func FormatKey(t *EntityType, data map[string]any) (string, error) {
	if len(t.Key) == 0 {
		return "", errors.NewSchemaMismatchError(t.QualifiedName(), "<key>")
	}

	values := make([]string, 0, len(t.Key))

	for _, keyName := range t.Key {
		var value any
		found := false

		for fieldName, fieldValue := range data {
			if names.Match(fieldName, keyName) {
				value = fieldValue
				found = true
				break
			}
		}

		if !found {
			return "", errors.NewSchemaMismatchError(t.QualifiedName(), keyName)
		}

		if len(t.Key) == 1 {
			return "(" + FormatKeyValue(value) + ")", nil
		}

		values = append(values, keyName+"="+FormatKeyValue(value))
	}

	return "(" + strings.Join(values, ",") + ")", nil
}

// FormatKeyValue renders a single key value as a URI literal.
func FormatKeyValue(v any) string {
	switch value := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	case uuid.UUID:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case nil:
		return "null"
	}

	if converted, err := wire.Convert(v, wire.KindInt64); err == nil {
		return strconv.FormatInt(converted.(int64), 10)
	}

	return fmt.Sprintf("%v", v)
}

func isCollectionTypeName(name string) bool {
	return strings.HasPrefix(name, "Collection(") && strings.HasSuffix(name, ")")
}

func elementTypeName(name string) string {
	if isCollectionTypeName(name) {
		return name[len("Collection(") : len(name)-1]
	}
	return name
}

func unqualify(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
