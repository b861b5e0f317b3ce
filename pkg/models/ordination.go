package models

import "time"

// OrdinationEvent records a clergy member's ordination to priesthood. A clergy
// member normally has one, but sub conditione re-ordination is representable
// as a second event so singularity is not enforced.
type OrdinationEvent struct {
	ID                int64      `json:"id" db:"id"`
	ClergyID          int64      `json:"clergy_id" db:"clergy_id" validate:"required"`
	Date              *time.Time `json:"date,omitempty" db:"date"`
	Year              *int       `json:"year,omitempty" db:"year"`
	OfficiantID       *int64     `json:"officiant_id,omitempty" db:"officiant_id"`
	IsDoubtfullyValid bool       `json:"is_doubtfully_valid" db:"is_doubtfully_valid"`
	IsDoubtful        bool       `json:"is_doubtful" db:"is_doubtful"`
	IsInvalid         bool       `json:"is_invalid" db:"is_invalid"`
	Notes             string     `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateOrdinationRequest is the request body for creating an ordination event
type CreateOrdinationRequest struct {
	ClergyID          int64   `json:"clergy_id" validate:"required"`
	Date              *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Year              *int    `json:"year,omitempty"`
	OfficiantID       *int64  `json:"officiant_id,omitempty"`
	IsDoubtfullyValid bool    `json:"is_doubtfully_valid,omitempty"`
	IsDoubtful        bool    `json:"is_doubtful,omitempty"`
	IsInvalid         bool    `json:"is_invalid,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

// UpdateOrdinationRequest is the request body for updating an ordination event.
// ClearOfficiant removes the officiant reference without replacing it.
type UpdateOrdinationRequest struct {
	Date              *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Year              *int    `json:"year,omitempty"`
	OfficiantID       *int64  `json:"officiant_id,omitempty"`
	ClearOfficiant    bool    `json:"clear_officiant,omitempty"`
	IsDoubtfullyValid *bool   `json:"is_doubtfully_valid,omitempty"`
	IsDoubtful        *bool   `json:"is_doubtful,omitempty"`
	IsInvalid         *bool   `json:"is_invalid,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

// OrdinationListResponse is the API response for listing ordination events
type OrdinationListResponse struct {
	Items      []OrdinationEvent `json:"items"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}
