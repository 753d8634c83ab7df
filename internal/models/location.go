package models

import (
	"github.com/google/uuid"
)

// Location is a named point on the map owned by one group.
type Location struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"groupId"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Audit
}

// LocationResponse is the API view of a Location.
type LocationResponse struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"groupId"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// ToResponse converts Location to LocationResponse.
func (l *Location) ToResponse() LocationResponse {
	return LocationResponse{ID: l.ID, GroupID: l.GroupID, Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude}
}

// ValidCoordinates reports whether lat/lon are on the globe.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
