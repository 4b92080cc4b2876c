package models

import "time"

type User struct {
	ID        int64      `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Username  string     `db:"username" json:"username"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at"` // nil until the first update
}

// UserInput is the request body for create and update. Both fields must be
// present as strings; empty strings are accepted.
type UserInput struct {
	Email    *string `json:"email" validate:"required,max=255"`
	Username *string `json:"username" validate:"required,max=100"`
}

// ListParams are the pagination query parameters for listing users.
type ListParams struct {
	Skip  int `json:"skip" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=0"`
}
