package models

import "time"

// Department is the organisational grouping that owns programs, rooms and subjects.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
