package model

import "time"

// CheckinLog is one day's habit check-in. The date (YYYY-MM-DD) is the key;
// saving twice for the same date overwrites.
type CheckinLog struct {
	Date       string    `json:"date"`
	EatenWell  bool      `json:"eaten_well"`
	DidSport   bool      `json:"did_sport"`
	Studied    bool      `json:"studied"`
	SleptEarly bool      `json:"slept_early"`
	SavedAt    time.Time `json:"saved_at"`
}
