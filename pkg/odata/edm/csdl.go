package edm

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// CSDL ($metadata) document structures, covering the subset of EDMX that
// drives request serialization.

type csdlEdmx struct {
	DataServices csdlDataServices `xml:"DataServices"`
}

type csdlDataServices struct {
	Schemas []csdlSchema `xml:"Schema"`
}

type csdlSchema struct {
	Namespace       string                `xml:"Namespace,attr"`
	EntityTypes     []csdlEntityType      `xml:"EntityType"`
	ComplexTypes    []csdlComplexType     `xml:"ComplexType"`
	EntityContainer []csdlEntityContainer `xml:"EntityContainer"`
	Annotations     []csdlAnnotations     `xml:"Annotations"`
}

type csdlEntityType struct {
	Name        string           `xml:"Name,attr"`
	Key         csdlKey          `xml:"Key"`
	Properties  []csdlProperty   `xml:"Property"`
	Navigations []csdlNavigation `xml:"NavigationProperty"`
	Annotations []csdlAnnotation `xml:"Annotation"`
}

type csdlComplexType struct {
	Name       string         `xml:"Name,attr"`
	Properties []csdlProperty `xml:"Property"`
}

type csdlKey struct {
	PropertyRefs []csdlPropertyRef `xml:"PropertyRef"`
}

type csdlPropertyRef struct {
	Name string `xml:"Name,attr"`
}

type csdlProperty struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable string `xml:"Nullable,attr"`
}

type csdlNavigation struct {
	Name        string                      `xml:"Name,attr"`
	Type        string                      `xml:"Type,attr"`
	Partner     string                      `xml:"Partner,attr"`
	Constraints []csdlReferentialConstraint `xml:"ReferentialConstraint"`
	OnDelete    *csdlOnDelete               `xml:"OnDelete"`
}

type csdlReferentialConstraint struct {
	Property           string `xml:"Property,attr"`
	ReferencedProperty string `xml:"ReferencedProperty,attr"`
}

type csdlOnDelete struct {
	Action string `xml:"Action,attr"`
}

type csdlEntityContainer struct {
	Name       string          `xml:"Name,attr"`
	EntitySets []csdlEntitySet `xml:"EntitySet"`
}

type csdlEntitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

type csdlAnnotations struct {
	Target     string           `xml:"Target,attr"`
	Annotation []csdlAnnotation `xml:"Annotation"`
}

type csdlAnnotation struct {
	Term string `xml:"Term,attr"`
	Bool string `xml:"Bool,attr"`
}

const termOptimisticConcurrency = "Org.OData.Core.V1.OptimisticConcurrency"

// LoadCSDL parses an EDMX metadata document into a schema. Only the first
// schema's namespace is used for qualified names; entity containers from
// all schemas contribute entity sets.
func LoadCSDL(data io.Reader) (*Schema, error) {
	edmx := &csdlEdmx{}

	err := xml.NewDecoder(data).Decode(edmx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata document: %w", err)
	}

	if len(edmx.DataServices.Schemas) == 0 {
		return nil, fmt.Errorf("metadata document contains no schema")
	}

	schema := &Schema{Namespace: edmx.DataServices.Schemas[0].Namespace}

	for _, s := range edmx.DataServices.Schemas {
		for _, et := range s.EntityTypes {
			t := &EntityType{
				Namespace: s.Namespace,
				Name:      et.Name,
			}

			for _, ref := range et.Key.PropertyRefs {
				t.Key = append(t.Key, ref.Name)
			}

			for _, p := range et.Properties {
				t.Properties = append(t.Properties, Property{
					Name:     p.Name,
					TypeName: p.Type,
					Nullable: p.Nullable != "false",
				})
			}

			for _, nav := range et.Navigations {
				n := NavigationProperty{
					Name:     nav.Name,
					TypeName: nav.Type,
					Partner:  nav.Partner,
				}
				for _, rc := range nav.Constraints {
					n.Dependents = append(n.Dependents, rc.Property)
				}
				if nav.OnDelete != nil {
					n.OnDelete = nav.OnDelete.Action
				}
				t.Navigations = append(t.Navigations, n)
			}

			for _, a := range et.Annotations {
				if a.Term == termOptimisticConcurrency {
					t.RequiresETag = a.Bool != "false"
				}
			}

			schema.Types = append(schema.Types, t)
		}

		for _, ct := range s.ComplexTypes {
			t := &EntityType{
				Namespace: s.Namespace,
				Name:      ct.Name,
			}
			for _, p := range ct.Properties {
				t.Properties = append(t.Properties, Property{
					Name:     p.Name,
					TypeName: p.Type,
					Nullable: p.Nullable != "false",
				})
			}
			schema.Types = append(schema.Types, t)
		}

		for _, container := range s.EntityContainer {
			for _, set := range container.EntitySets {
				schema.Sets = append(schema.Sets, &EntitySet{
					Name:     set.Name,
					TypeName: set.EntityType,
				})
			}
		}

		// concurrency requirements may also be annotated out of line,
		// targeting either the type or its entity set
		for _, annotations := range s.Annotations {
			for _, a := range annotations.Annotation {
				if a.Term != termOptimisticConcurrency || a.Bool == "false" {
					continue
				}

				target := annotations.Target
				if t, ok := schema.EntityType(target); ok {
					t.RequiresETag = true
					continue
				}

				if idx := strings.LastIndex(target, "/"); idx >= 0 {
					target = target[idx+1:]
				}
				if set, ok := schema.EntitySet(target); ok {
					if t, ok := schema.EntityType(set.TypeName); ok {
						t.RequiresETag = true
					}
				}
			}
		}
	}

	return schema, nil
}
