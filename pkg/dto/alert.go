package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type UnknownFaceResponse struct {
	ID          uuid.UUID `json:"id"`
	DetectedAt  string    `json:"detected_at"`
	Confidence  float64   `json:"confidence"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type UnknownFaceListResponse struct {
	Alerts []UnknownFaceResponse `json:"alerts"`
	Total  int                   `json:"total"`
}

// WSNotification is a WebSocket message for real-time delivery.
// Type is "recognized" or "alert"; Data carries the matching
// notification payload.
type WSNotification struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
