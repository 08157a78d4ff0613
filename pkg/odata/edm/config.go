package edm

import (
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v2"
)

type propertyConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable"`
}

type navigationConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Partner    string   `yaml:"partner"`
	Dependents []string `yaml:"dependents"`
	OnDelete   string   `yaml:"onDelete"`
}

type entityTypeConfig struct {
	Name        string             `yaml:"name"`
	Key         []string           `yaml:"key"`
	ETag        bool               `yaml:"etag"`
	Properties  []propertyConfig   `yaml:"properties"`
	Navigations []navigationConfig `yaml:"navigations"`
}

type entitySetConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type modelConfig struct {
	Namespace   string             `yaml:"namespace"`
	EntityTypes []entityTypeConfig `yaml:"entityTypes"`
	EntitySets  []entitySetConfig  `yaml:"entitySets"`
}

// LoadModel reads a YAML model definition and builds a schema from it.
// Property and navigation declaration order in the document is the order
// the encoder will see.
func LoadModel(data io.Reader) (*Schema, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &modelConfig{}
	err = yaml.Unmarshal(buf, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal model definition: %w", err)
	}

	schema := &Schema{Namespace: cfg.Namespace}

	for _, tc := range cfg.EntityTypes {
		t := &EntityType{
			Namespace:    cfg.Namespace,
			Name:         tc.Name,
			Key:          tc.Key,
			RequiresETag: tc.ETag,
		}

		for _, pc := range tc.Properties {
			nullable := true
			if pc.Nullable != nil {
				nullable = *pc.Nullable
			}

			t.Properties = append(t.Properties, Property{
				Name:     pc.Name,
				TypeName: pc.Type,
				Nullable: nullable,
			})
		}

		for _, nc := range tc.Navigations {
			t.Navigations = append(t.Navigations, NavigationProperty{
				Name:       nc.Name,
				TypeName:   nc.Type,
				Partner:    nc.Partner,
				Dependents: nc.Dependents,
				OnDelete:   nc.OnDelete,
			})
		}

		schema.Types = append(schema.Types, t)
	}

	for _, sc := range cfg.EntitySets {
		schema.Sets = append(schema.Sets, &EntitySet{
			Name:     sc.Name,
			TypeName: sc.Type,
		})
	}

	return schema, nil
}
