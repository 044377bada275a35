package models

import "time"

// Lead is a prospective client captured by one of the public forms.
type Lead struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	WhatsApp  string    `json:"whatsapp"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PropertyType  string   `json:"property_type,omitempty"`
	Address       string   `json:"address,omitempty"`
	Locality      string   `json:"locality,omitempty"`
	Neighborhood  string   `json:"neighborhood,omitempty"`
	CoveredArea   *float64 `json:"covered_area,omitempty"`
	TotalArea     *float64 `json:"total_area,omitempty"`
	Rooms         *int     `json:"rooms,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	Condition     string   `json:"condition,omitempty"`
	Extras        []string `json:"extras,omitempty"`
	BudgetMin     *float64 `json:"budget_min,omitempty"`
	BudgetMax     *float64 `json:"budget_max,omitempty"`
	PreferredZone string   `json:"preferred_zone,omitempty"`
	Experience    string   `json:"experience,omitempty"`
	Message       string   `json:"message,omitempty"`
	CVURL         string   `json:"cv_url,omitempty"`

	AssignedAdvisorID *int64 `json:"assigned_advisor_id,omitempty"`
	PropertyID        *int64 `json:"property_id,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

type LeadFilter struct {
	Type      string
	Status    string
	AdvisorID int64
	DateFrom  string
	DateTo    string
}

// LeadUpdate carries the admin-editable fields; nil leaves a column untouched.
type LeadUpdate struct {
	Status            *string `json:"status"`
	Message           *string `json:"message"`
	AssignedAdvisorID *int64  `json:"assigned_advisor_id"`
	PropertyID        *int64  `json:"property_id"`
}

// Advisor receives leads in least-loaded order.
type Advisor struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	WhatsApp   string `json:"whatsapp"`
	Active     bool   `json:"active"`
	LeadsCount int    `json:"leads_count"`
}
