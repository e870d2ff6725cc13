package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/attend/internal/attendance"
	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/observability"
)

// Outcome classifies what the engine did with one observation.
type Outcome string

const (
	// OutcomeNoFace: the tick carried no descriptor; nothing happened.
	OutcomeNoFace Outcome = "no_face"
	// OutcomeRecognized: a match was accepted and the attendance state
	// machine ran (its own outcome is reported separately).
	OutcomeRecognized Outcome = "recognized"
	// OutcomeCoolingDown: the matched employee is inside the cooldown
	// window; the observation was dropped silently.
	OutcomeCoolingDown Outcome = "cooling_down"
	// OutcomeUnknown: no match; an unknown-face event was recorded.
	OutcomeUnknown Outcome = "unknown"
	// OutcomeThrottled: no match, but the alert throttle suppressed it.
	OutcomeThrottled Outcome = "throttled"
)

// unknownKey is the single throttle key shared by all unmatched
// observations; without an identity there is nothing finer to key on.
const unknownKey = "unknown"

// AttendanceService runs the per-day state machine for a recognized
// employee.
type AttendanceService interface {
	Observe(ctx context.Context, employeeID, name string, now time.Time) (*models.AttendanceRecord, attendance.Outcome, error)
}

// AlertStore persists unknown-face events.
type AlertStore interface {
	SaveUnknownFace(ctx context.Context, ev *models.UnknownFaceEvent) error
}

// SnapshotSink stores alert snapshot images. May be nil.
type SnapshotSink interface {
	PutSnapshot(ctx context.Context, key string, data []byte) error
}

// Notifier publishes advisory notifications. Publish failures are logged
// and never affect attendance state.
type Notifier interface {
	PublishRecognized(ctx context.Context, employeeID string, payload interface{}) error
	PublishAlert(ctx context.Context, payload interface{}) error
}

// CandidateSource supplies the active reference descriptors.
type CandidateSource interface {
	ActiveDescriptors() []Candidate
}

// Result is what one evaluation produced.
type Result struct {
	Outcome    Outcome
	Match      *MatchResult
	Transition attendance.Outcome
	Record     *models.AttendanceRecord
	Event      *models.UnknownFaceEvent
}

// Engine is the per-observation decision function: match the descriptor,
// debounce, drive the attendance state machine or the alert path, emit
// notifications. It owns no timer; the capture loop drives it one
// observation at a time.
type Engine struct {
	matcher    *Matcher
	candidates CandidateSource
	cooldown   *Tracker
	throttle   *Tracker
	attendance AttendanceService
	alerts     AlertStore
	snapshots  SnapshotSink
	notifier   Notifier
}

type EngineConfig struct {
	MatchThreshold      float64
	MatchCooldown       time.Duration
	UnknownFaceThrottle time.Duration
}

func NewEngine(cfg EngineConfig, candidates CandidateSource, svc AttendanceService, alerts AlertStore, snapshots SnapshotSink, notifier Notifier) *Engine {
	return &Engine{
		matcher:    NewMatcher(cfg.MatchThreshold),
		candidates: candidates,
		cooldown:   NewTracker(cfg.MatchCooldown),
		throttle:   NewTracker(cfg.UnknownFaceThrottle),
		attendance: svc,
		alerts:     alerts,
		snapshots:  snapshots,
		notifier:   notifier,
	}
}

// Evaluate processes one observation to completion. Storage failures are
// returned to the caller and the tick is dropped; the cooldown window for
// an accepted observation stays marked, so a failed write is not retried
// until the window elapses.
func (e *Engine) Evaluate(ctx context.Context, obs models.Observation) (*Result, error) {
	now := obs.ObservedAt
	if now.IsZero() {
		now = time.Now()
	}

	if len(obs.Descriptor) == 0 {
		observability.ObservationsProcessed.WithLabelValues(string(OutcomeNoFace)).Inc()
		return &Result{Outcome: OutcomeNoFace}, nil
	}

	match := e.matcher.Match(obs.Descriptor, e.candidates.ActiveDescriptors())
	if match == nil {
		return e.handleUnknown(ctx, obs, now)
	}
	return e.handleMatch(ctx, match, now)
}

func (e *Engine) handleMatch(ctx context.Context, match *MatchResult, now time.Time) (*Result, error) {
	observability.MatchDistance.Observe(match.Distance)

	if !e.cooldown.Allow(match.EmployeeID, now) {
		observability.CooldownSuppressed.Inc()
		observability.ObservationsProcessed.WithLabelValues(string(OutcomeCoolingDown)).Inc()
		return &Result{Outcome: OutcomeCoolingDown, Match: match}, nil
	}

	record, transition, err := e.attendance.Observe(ctx, match.EmployeeID, match.Name, now)
	if err != nil {
		observability.ObservationsProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("attendance transition: %w", err)
	}

	observability.AttendanceTransitions.WithLabelValues(string(transition)).Inc()
	observability.ObservationsProcessed.WithLabelValues(string(OutcomeRecognized)).Inc()

	if e.notifier != nil {
		note := models.RecognizedNotification{
			EmployeeID: match.EmployeeID,
			Name:       match.Name,
			Confidence: match.Confidence,
			Outcome:    string(transition),
			ObservedAt: now,
		}
		if record != nil {
			note.Date = record.Date
		}
		if err := e.notifier.PublishRecognized(ctx, match.EmployeeID, note); err != nil {
			slog.Warn("publish recognized notification", "employee_id", match.EmployeeID, "error", err)
		}
	}

	return &Result{
		Outcome:    OutcomeRecognized,
		Match:      match,
		Transition: transition,
		Record:     record,
	}, nil
}

func (e *Engine) handleUnknown(ctx context.Context, obs models.Observation, now time.Time) (*Result, error) {
	if !e.throttle.Allow(unknownKey, now) {
		observability.AlertsThrottled.Inc()
		observability.ObservationsProcessed.WithLabelValues(string(OutcomeThrottled)).Inc()
		return &Result{Outcome: OutcomeThrottled}, nil
	}

	event := &models.UnknownFaceEvent{
		ID:         uuid.New(),
		DetectedAt: now,
		Confidence: obs.Confidence,
	}

	if len(obs.Snapshot) > 0 && e.snapshots != nil {
		key := fmt.Sprintf("alerts/%s.jpg", event.ID)
		if err := e.snapshots.PutSnapshot(ctx, key, obs.Snapshot); err != nil {
			// The event is still worth keeping without its image.
			slog.Warn("store alert snapshot", "event_id", event.ID, "error", err)
		} else {
			event.SnapshotKey = key
		}
	}

	if err := e.alerts.SaveUnknownFace(ctx, event); err != nil {
		observability.ObservationsProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save unknown face event: %w", err)
	}

	observability.UnknownFaceEvents.Inc()
	observability.ObservationsProcessed.WithLabelValues(string(OutcomeUnknown)).Inc()

	if e.notifier != nil {
		note := models.AlertNotification{
			EventID:    event.ID,
			DetectedAt: event.DetectedAt,
			Confidence: event.Confidence,
		}
		if event.SnapshotKey != "" {
			note.SnapshotURL = "/v1/alerts/" + event.ID.String() + "/snapshot"
		}
		if err := e.notifier.PublishAlert(ctx, note); err != nil {
			slog.Warn("publish alert notification", "event_id", event.ID, "error", err)
		}
	}

	return &Result{Outcome: OutcomeUnknown, Event: event}, nil
}
