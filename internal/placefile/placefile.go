// Package placefile reads place definitions from YAML for bulk import.
//
//	places:
//	  - name: City Library
//	    latitude: 52.5186
//	    longitude: 13.3762
//	    radius: 80
//	    category: library
package placefile

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"placetime/backend/internal/service"
)

type file struct {
	Places []entry `yaml:"places"`
}

type entry struct {
	Name      string   `yaml:"name"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
	Radius    float64  `yaml:"radius"`
	Category  string   `yaml:"category"`
}

// Parse decodes a place file. Field validation is left to PlaceService.
func Parse(r io.Reader) ([]service.PlaceInput, error) {
	var f file
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode place file: %w", err)
	}

	inputs := make([]service.PlaceInput, 0, len(f.Places))
	for i, e := range f.Places {
		if e.Latitude == nil || e.Longitude == nil {
			return nil, fmt.Errorf("place %d (%q): latitude and longitude are required", i+1, e.Name)
		}
		inputs = append(inputs, service.PlaceInput{
			Name:         e.Name,
			Latitude:     *e.Latitude,
			Longitude:    *e.Longitude,
			RadiusMeters: e.Radius,
			Category:     e.Category,
		})
	}
	return inputs, nil
}
