package models

import "time"

// Clergy is a person holding one rank at a time. Deletion is logical so that
// historical lineage stays queryable.
type Clergy struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name" validate:"required"`
	Rank         string     `json:"rank" db:"rank" validate:"required"`
	Organization *string    `json:"organization,omitempty" db:"organization"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	DateOfDeath  *time.Time `json:"date_of_death,omitempty" db:"date_of_death"`
	Notes        string     `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// LegacyClergyLineage is the denormalized lineage shape carried on old clergy
// rows. It is read once by the legacy migration and never written back.
type LegacyClergyLineage struct {
	ID                 int64      `db:"id"`
	Name               string     `db:"name"`
	OrdainingBishopID  *int64     `db:"ordaining_bishop_id"`
	DateOfOrdination   *time.Time `db:"date_of_ordination"`
	ConsecratorID      *int64     `db:"consecrator_id"`
	DateOfConsecration *time.Time `db:"date_of_consecration"`
	CoConsecrators     *string    `db:"co_consecrators"`
}

// CreateClergyRequest is the request body for creating a clergy record
type CreateClergyRequest struct {
	Name         string  `json:"name" validate:"required"`
	Rank         string  `json:"rank" validate:"required"`
	Organization *string `json:"organization,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath  *string `json:"date_of_death,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes        string  `json:"notes,omitempty"`
}

// UpdateClergyRequest is the request body for updating a clergy record
type UpdateClergyRequest struct {
	Name         *string `json:"name,omitempty"`
	Rank         *string `json:"rank,omitempty"`
	Organization *string `json:"organization,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath  *string `json:"date_of_death,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes        *string `json:"notes,omitempty"`
}

// ClergyListResponse is the API response for listing clergy records
type ClergyListResponse struct {
	Items      []Clergy `json:"items"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}

// ClergyDeleteResponse reports the references detached while soft deleting a
// clergy record.
type ClergyDeleteResponse struct {
	ID                     int64 `json:"id"`
	OrdinationsDetached    int   `json:"ordinations_detached"`
	ConsecrationsDetached  int   `json:"consecrations_detached"`
	CoConsecratorsDetached int   `json:"co_consecrators_detached"`
}

// ResolveOfficiantRequest resolves free-text officiant input to an existing
// clergy record, optionally creating one when no match exists.
type ResolveOfficiantRequest struct {
	Name            string `json:"name" validate:"required"`
	CreateIfMissing bool   `json:"create_if_missing,omitempty"`
	Rank            string `json:"rank,omitempty"`
}

// ResolveOfficiantResponse is the result of an officiant resolution
type ResolveOfficiantResponse struct {
	Clergy  *Clergy `json:"clergy,omitempty"`
	Created bool    `json:"created"`
	Matched bool    `json:"matched"`
}
