package models

import "time"

// Module belongs to an organization; (organization_id, name) is unique.
type Module struct {
	ID             string    `json:"-"`
	OrganizationID string    `json:"-"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
