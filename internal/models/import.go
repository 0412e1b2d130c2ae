package models

import "time"

// ImportCompleted is published once per finished import run.
type ImportCompleted struct {
	RunID      string    `json:"run_id"`
	File       string    `json:"file"`
	Read       int       `json:"read"`
	Inserted   int64     `json:"inserted"`
	Duplicates int64     `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finished_at"`
}
