// Package decisions reads architectural decision records (ADRs) from the
// project listing.
package decisions

import (
	"time"
)

// Record is the metadata of one decision record.
type Record struct {
	Number int    `json:"number"`
	ID     string `json:"id"` // "ADR-001" style
	Title  string `json:"title"`
	// Status is lower-cased and reduced to its first word; "" when undeclared.
	Status     string `json:"status,omitempty"`
	StatusLine int    `json:"statusLine,omitempty"`
	// SupersededBy is the successor as written; SupersededNumber is its number
	// or 0 when none could be read.
	SupersededBy     string    `json:"supersededBy,omitempty"`
	SupersededNumber int       `json:"supersededNumber,omitempty"`
	Date             time.Time `json:"date,omitempty"`
	File             string    `json:"file"`
}

// Status represents valid ADR statuses
type Status string

const (
	StatusProposed   Status = "proposed"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusDeprecated Status = "deprecated"
	StatusSuperseded Status = "superseded"
)

// Statuses lists the valid statuses in lifecycle order.
var Statuses = []Status{StatusProposed, StatusAccepted, StatusRejected, StatusDeprecated, StatusSuperseded}

// IsValidStatus checks if a status string is valid
func IsValidStatus(status string) bool {
	switch Status(status) {
	case StatusProposed, StatusAccepted, StatusRejected, StatusDeprecated, StatusSuperseded:
		return true
	default:
		return false
	}
}
