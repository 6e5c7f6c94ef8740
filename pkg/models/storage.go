package models

import (
	"encoding/json"
	"time"
)

// MergedListing is the persisted form of one reconciled listing
type MergedListing struct {
	ID        string          `db:"id" json:"id"`
	RunID     string          `db:"run_id" json:"run_id"`
	City      string          `db:"city" json:"city"`
	Category  string          `db:"category" json:"category"`
	Data      json.RawMessage `db:"data" json:"data"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ReconcileRun is the persisted record of one reconciliation run
type ReconcileRun struct {
	ID          string     `db:"id" json:"id"`
	Status      string     `db:"status" json:"status"` // running, completed, failed
	Report      *Report    `db:"-" json:"report,omitempty"`
	ReportJSON  []byte     `db:"report" json:"-"`
	Error       string     `db:"error" json:"error,omitempty"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
