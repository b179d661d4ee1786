package models

import (
	"time"
)

// Base contains common columns for the tables kept in the relational store
// (users and audit logs). Ledger records live in memory and do not use it.
type Base struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
