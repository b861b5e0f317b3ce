package models

import "time"

// ConsecrationEvent records a clergy member's consecration to the episcopate
// by a principal consecrator plus zero or more co-consecrators.
type ConsecrationEvent struct {
	ID                int64      `json:"id" db:"id"`
	ClergyID          int64      `json:"clergy_id" db:"clergy_id" validate:"required"`
	Date              *time.Time `json:"date,omitempty" db:"date"`
	Year              *int       `json:"year,omitempty" db:"year"`
	ConsecratorID     *int64     `json:"consecrator_id,omitempty" db:"consecrator_id"`
	IsDoubtfullyValid bool       `json:"is_doubtfully_valid" db:"is_doubtfully_valid"`
	IsDoubtful        bool       `json:"is_doubtful" db:"is_doubtful"`
	IsInvalid         bool       `json:"is_invalid" db:"is_invalid"`
	Notes             string     `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`

	// CoConsecratorIDs is loaded from the co_consecrators association, not a column.
	CoConsecratorIDs []int64 `json:"co_consecrator_ids,omitempty" db:"-"`
}

// CoConsecrator is a single consecration event's additional officiant. A given
// clergy id appears at most once per event.
type CoConsecrator struct {
	ID                  int64     `json:"id" db:"id"`
	ConsecrationEventID int64     `json:"consecration_event_id" db:"consecration_event_id"`
	CoConsecratorID     int64     `json:"co_consecrator_id" db:"co_consecrator_id"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// CreateConsecrationRequest is the request body for creating a consecration event
type CreateConsecrationRequest struct {
	ClergyID          int64   `json:"clergy_id" validate:"required"`
	Date              *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Year              *int    `json:"year,omitempty"`
	ConsecratorID     *int64  `json:"consecrator_id,omitempty"`
	CoConsecratorIDs  []int64 `json:"co_consecrator_ids,omitempty"`
	IsDoubtfullyValid bool    `json:"is_doubtfully_valid,omitempty"`
	IsDoubtful        bool    `json:"is_doubtful,omitempty"`
	IsInvalid         bool    `json:"is_invalid,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

// UpdateConsecrationRequest is the request body for updating a consecration
// event. ClearConsecrator removes the principal reference without replacing it.
type UpdateConsecrationRequest struct {
	Date              *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Year              *int    `json:"year,omitempty"`
	ConsecratorID     *int64  `json:"consecrator_id,omitempty"`
	ClearConsecrator  bool    `json:"clear_consecrator,omitempty"`
	IsDoubtfullyValid *bool   `json:"is_doubtfully_valid,omitempty"`
	IsDoubtful        *bool   `json:"is_doubtful,omitempty"`
	IsInvalid         *bool   `json:"is_invalid,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

// SetCoConsecratorsRequest replaces a consecration event's full co-officiant set
type SetCoConsecratorsRequest struct {
	ClergyIDs []int64 `json:"clergy_ids"`
}

// ConsecrationListResponse is the API response for listing consecration events
type ConsecrationListResponse struct {
	Items      []ConsecrationEvent `json:"items"`
	TotalCount int                 `json:"total_count"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
}
