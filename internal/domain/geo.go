package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NameProperty is the feature property holding the canonical state name.
const NameProperty = "NAME"

// FeatureCollection is the subset of GeoJSON the service reads. Geometry is
// passed through untouched to the map renderer.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single boundary polygon with its properties.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Name returns properties.NAME, or "" when missing.
func (f Feature) Name() string {
	name, _ := f.Properties[NameProperty].(string)
	return name
}

// ParseBoundaries decodes a GeoJSON FeatureCollection.
func ParseBoundaries(data []byte) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse boundaries: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.New("parse boundaries: not a FeatureCollection")
	}
	return &fc, nil
}

// WithProperties returns a copy of fc where each feature's properties are
// extended by props(feature). The receiver is not modified.
func (fc *FeatureCollection) WithProperties(props func(Feature) map[string]any) *FeatureCollection {
	out := &FeatureCollection{Type: fc.Type, Features: make([]Feature, len(fc.Features))}
	for i, f := range fc.Features {
		merged := make(map[string]any, len(f.Properties)+2)
		for k, v := range f.Properties {
			merged[k] = v
		}
		for k, v := range props(f) {
			merged[k] = v
		}
		out.Features[i] = Feature{Type: f.Type, Properties: merged, Geometry: f.Geometry}
	}
	return out
}
