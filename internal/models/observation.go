package models

import "time"

// Observation is one sampled evaluation from a camera stream: a face
// descriptor already computed by the capture side, plus an optional JPEG
// snapshot used when the observation turns into an unknown-face alert.
// A nil Descriptor means no face was found in the frame this tick.
type Observation struct {
	Descriptor []float32
	// Confidence is the capture side's detection confidence, carried into
	// unknown-face events.
	Confidence float64
	Snapshot   []byte
	ObservedAt time.Time
}
