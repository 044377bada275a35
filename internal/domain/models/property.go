package models

import "time"

// Property is a published listing.
type Property struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Operation    string    `json:"operation"`
	Address      string    `json:"address"`
	Locality     string    `json:"locality"`
	Neighborhood string    `json:"neighborhood"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	CoveredArea  float64   `json:"covered_area"`
	TotalArea    *float64  `json:"total_area,omitempty"`
	Rooms        int       `json:"rooms"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Condition    string    `json:"condition"`
	Extras       []string  `json:"extras"`
	Images       []string  `json:"images"`
	MainImage    string    `json:"main_image,omitempty"`
	AdvisorID    *int64    `json:"advisor_id,omitempty"`
	Active       bool      `json:"active"`
	Featured     bool      `json:"featured"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PropertyFilter struct {
	Type       string
	Operation  string
	Locality   string
	MinPrice   *float64
	MaxPrice   *float64
	Featured   bool
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}

type PropertyStats struct {
	Total       int            `json:"total"`
	Active      int            `json:"active"`
	Featured    int            `json:"featured"`
	ByType      map[string]int `json:"by_type"`
	ByOperation map[string]int `json:"by_operation"`
}
