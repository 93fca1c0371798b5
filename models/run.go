package models

import "time"

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// ScrapeRun records one scrape execution in the run-history store.
type ScrapeRun struct {
	ID             int64      `json:"id" db:"id"`
	City           string     `json:"city" db:"city"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         string     `json:"status" db:"status"`
	URLsTried      int        `json:"urls_tried" db:"urls_tried"`
	URLsSucceeded  int        `json:"urls_succeeded" db:"urls_succeeded"`
	ListingsFound  int        `json:"listings_found" db:"listings_found"`
	UniqueCount    int        `json:"unique_count" db:"unique_count"`
	SyntheticCount int        `json:"synthetic_count" db:"synthetic_count"`
}

// RunStats summarizes a single pipeline invocation.
type RunStats struct {
	URLsTried      int
	URLsSucceeded  int
	ListingsFound  int
	UniqueCount    int
	SyntheticCount int
}
