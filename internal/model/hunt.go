// Package model defines domain entities for the application.
package model

import "time"

// Hunt represents a listing post describing a sought car.
type Hunt struct {
	ID        string    `json:"hunt_id"`
	UserID    string    `json:"user_id"`
	CarModel  string    `json:"car_model"`
	CarType   string    `json:"car_type"`
	Location  string    `json:"location"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image represents a stored photo attached to a hunt.
// URL is the stored file path relative to the /uploads mount.
type Image struct {
	ID     int64  `json:"id"`
	HuntID string `json:"hunt_id"`
	URL    string `json:"url"`
}
