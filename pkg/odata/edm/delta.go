package edm

import (
	"strings"

	"github.com/nordiq/odatakit/internal/pkg/names"
)

// DeltaModel is an overlay over a source model: it answers lookups for one
// restricted entity type and forwards everything else to the source. It is
// synthesized per partial-update write and never cached.
type DeltaModel struct {
	Model

	delta *EntityType
}

// Restrict builds a view of t under the same qualified name that declares
// only the structural and navigation properties whose names appear in
// keep. Omitted fields are thereby left out of the serialized entry
// instead of being nulled by a partial update.
func Restrict(m Model, t *EntityType, keep []string) *DeltaModel {
	delta := &EntityType{
		Namespace:    t.Namespace,
		Name:         t.Name,
		Key:          t.Key,
		RequiresETag: t.RequiresETag,
	}

	for _, p := range t.Properties {
		if keepName(keep, p.Name) {
			delta.Properties = append(delta.Properties, p)
		}
	}

	for _, nav := range t.Navigations {
		if !keepName(keep, nav.Name) {
			continue
		}

		// re-derive as a one-directional link: no back-navigation,
		// association metadata taken from the partner when declared there
		derived := NavigationProperty{
			Name:       nav.Name,
			TypeName:   nav.TypeName,
			Dependents: nav.Dependents,
			OnDelete:   nav.OnDelete,
		}

		if partner, ok := PartnerOf(m, &nav); ok {
			if len(derived.Dependents) == 0 {
				derived.Dependents = partner.Dependents
			}
			if derived.OnDelete == "" {
				derived.OnDelete = partner.OnDelete
			}
		}

		delta.Navigations = append(delta.Navigations, derived)
	}

	return &DeltaModel{Model: m, delta: delta}
}

// Delta returns the restricted type definition.
func (d *DeltaModel) Delta() *EntityType {
	return d.delta
}

// EntityType answers with the restricted view for the restricted type's
// own name and delegates every other lookup to the source model.
func (d *DeltaModel) EntityType(name string) (*EntityType, bool) {
	if strings.EqualFold(d.delta.QualifiedName(), name) || names.Match(d.delta.Name, name) {
		return d.delta, true
	}

	return d.Model.EntityType(name)
}

func keepName(keep []string, name string) bool {
	for _, k := range keep {
		if names.Match(k, name) {
			return true
		}
	}
	return false
}
