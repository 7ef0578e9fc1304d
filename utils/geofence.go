package utils

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geofence is the polygonal boundary of an apron or depot, stored as JSON on
// the location record.
type Geofence struct {
	Coordinates []Coordinate `json:"coordinates"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
}

// ValidateGeofence checks a location's geofence JSON. An empty string is
// fine: the geofence is optional.
func ValidateGeofence(geofenceJSON string) error {
	if geofenceJSON == "" {
		return nil
	}

	var geofence Geofence
	if err := json.Unmarshal([]byte(geofenceJSON), &geofence); err != nil {
		return fmt.Errorf("invalid geofence JSON format: %w", err)
	}

	if len(geofence.Coordinates) < 3 {
		return errors.New("geofence must have at least 3 coordinates to form a polygon")
	}

	for i, coord := range geofence.Coordinates {
		if err := validateCoordinate(coord); err != nil {
			return fmt.Errorf("invalid coordinate at index %d: %w", i, err)
		}
	}
	return nil
}

func validateCoordinate(coord Coordinate) error {
	if coord.Lat < -90 || coord.Lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", coord.Lat)
	}
	if coord.Lng < -180 || coord.Lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", coord.Lng)
	}
	return nil
}

// ParseGeofence decodes a stored geofence JSON string.
func ParseGeofence(geofenceJSON string) (*Geofence, error) {
	if geofenceJSON == "" {
		return nil, nil
	}
	var geofence Geofence
	if err := json.Unmarshal([]byte(geofenceJSON), &geofence); err != nil {
		return nil, fmt.Errorf("failed to parse geofence: %w", err)
	}
	return &geofence, nil
}

// IsPointInPolygon reports whether a point lies inside a polygon (ray
// casting).
func IsPointInPolygon(point Coordinate, polygon []Coordinate) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		xi, yi := polygon[i].Lng, polygon[i].Lat
		xj, yj := polygon[j].Lng, polygon[j].Lat

		intersect := ((yi > point.Lat) != (yj > point.Lat)) &&
			(point.Lng < (xj-xi)*(point.Lat-yi)/(yj-yi)+xi)

		if intersect {
			inside = !inside
		}
		j = i
	}

	return inside
}
