package models

import "time"

// Organization is organizational metadata a clergy record may belong to
type Organization struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name" validate:"required"`
	Abbreviation string     `json:"abbreviation,omitempty" db:"abbreviation"`
	Description  string     `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateOrganizationRequest is the request body for creating an organization
type CreateOrganizationRequest struct {
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Description  string `json:"description,omitempty"`
}

// UpdateOrganizationRequest is the request body for updating an organization
type UpdateOrganizationRequest struct {
	Name         *string `json:"name,omitempty"`
	Abbreviation *string `json:"abbreviation,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// OrganizationListResponse is the API response for listing organizations
type OrganizationListResponse struct {
	Items      []Organization `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
