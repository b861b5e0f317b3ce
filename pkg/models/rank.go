package models

import "time"

// Rank is organizational metadata describing a clergy rank (e.g. Priest, Bishop)
type Rank struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name" validate:"required"`
	Description string     `json:"description,omitempty" db:"description"`
	IsEpiscopal bool       `json:"is_episcopal" db:"is_episcopal"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateRankRequest is the request body for creating a rank
type CreateRankRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	IsEpiscopal bool   `json:"is_episcopal,omitempty"`
}

// UpdateRankRequest is the request body for updating a rank
type UpdateRankRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsEpiscopal *bool   `json:"is_episcopal,omitempty"`
}

// RankListResponse is the API response for listing ranks
type RankListResponse struct {
	Items      []Rank `json:"items"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}
