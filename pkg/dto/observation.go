package dto

// ObservationRequest is one sampled evaluation from a camera client. An
// empty descriptor means no face was found this tick. Snapshot is an
// optional base64-encoded JPEG used when the observation becomes an
// unknown-face alert.
type ObservationRequest struct {
	Descriptor []float32 `json:"descriptor"`
	Confidence float64   `json:"confidence"`
	ObservedAt string    `json:"observed_at,omitempty"`
	Snapshot   string    `json:"snapshot,omitempty"`
}

type MatchInfo struct {
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

type ObservationResponse struct {
	Outcome    string              `json:"outcome"`
	Transition string              `json:"transition,omitempty"`
	Match      *MatchInfo          `json:"match,omitempty"`
	Attendance *AttendanceResponse `json:"attendance,omitempty"`
	AlertID    string              `json:"alert_id,omitempty"`
}
