package models

import (
	"time"

	"github.com/google/uuid"
)

// UnknownFaceEvent records an unmatched observation that survived the
// alert throttle. SnapshotKey is the MinIO object key of the face image,
// empty when no snapshot was captured.
type UnknownFaceEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DetectedAt  time.Time `json:"detected_at" db:"detected_at"`
	Confidence  float64   `json:"confidence" db:"confidence"`
	SnapshotKey string    `json:"snapshot_key" db:"snapshot_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
