package models

import (
	"time"

	"github.com/google/uuid"
)

// RecognizedNotification is published when a matched, non-cooled-down
// observation was evaluated, whatever the attendance transition decided.
// The UI layer chooses how to present rejected transitions.
type RecognizedNotification struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Outcome    string    `json:"outcome"`
	Date       string    `json:"date"`
	ObservedAt time.Time `json:"observed_at"`
}

// AlertNotification is published when an unmatched observation survives
// the alert throttle.
type AlertNotification struct {
	EventID     uuid.UUID `json:"event_id"`
	DetectedAt  time.Time `json:"detected_at"`
	Confidence  float64   `json:"confidence"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
}
