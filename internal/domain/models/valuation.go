package models

import "time"

// Valuation is a stored estimate together with the request that produced it.
type Valuation struct {
	ID             int64     `json:"id"`
	PropertyType   string    `json:"property_type"`
	Locality       string    `json:"locality"`
	Neighborhood   string    `json:"neighborhood,omitempty"`
	CoveredArea    float64   `json:"covered_area"`
	TotalArea      *float64  `json:"total_area,omitempty"`
	Bedrooms       *int      `json:"bedrooms,omitempty"`
	Bathrooms      *int      `json:"bathrooms,omitempty"`
	Condition      string    `json:"condition"`
	Extras         []string  `json:"extras"`
	EstimatedValue int64     `json:"estimated_value"`
	MinimumValue   int64     `json:"minimum_value"`
	MaximumValue   int64     `json:"maximum_value"`
	Currency       string    `json:"currency"`
	RuleSource     string    `json:"rule_source"`
	Name           string    `json:"name,omitempty"`
	Surname        string    `json:"surname,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	LeadID         *int64    `json:"lead_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ValuationFilter struct {
	PropertyType string
	Locality     string
	DateFrom     string
	DateTo       string
	Limit        int
}

// GroupStat is a count and rounded average estimate for one bucket.
type GroupStat struct {
	Count   int   `json:"count"`
	Average int64 `json:"avg"`
}

type ValuationStats struct {
	Total      int                  `json:"total"`
	ByType     map[string]GroupStat `json:"by_type"`
	ByLocality map[string]GroupStat `json:"by_locality"`
}
