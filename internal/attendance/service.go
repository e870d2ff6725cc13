package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/storage"
)

// Store is the attendance persistence surface. The unique constraint on
// (employee_id, date) lives here; the service only reacts to it.
type Store interface {
	GetAttendance(ctx context.Context, employeeID, date string) (*models.AttendanceRecord, error)
	InsertAttendance(ctx context.Context, r *models.AttendanceRecord) error
	SetAttendanceCheckOut(ctx context.Context, employeeID, date string, checkOut time.Time) error
}

// Service applies attendance decisions against storage. The decision is
// computed first by Decide, then persisted; storage remains the final
// arbiter for races between concurrent camera streams.
type Service struct {
	store    Store
	minDwell time.Duration
	loc      *time.Location
}

func NewService(store Store, minDwell time.Duration, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, minDwell: minDwell, loc: loc}
}

// Observe advances the per-day state machine for one recognized employee.
// A lost insert race is reported as OutcomeAlreadyCheckedIn, a lost
// checkout race as OutcomeAlreadyCheckedOut; neither is an error.
func (s *Service) Observe(ctx context.Context, employeeID, name string, now time.Time) (*models.AttendanceRecord, Outcome, error) {
	date := DayKey(now, s.loc)

	current, err := s.store.GetAttendance(ctx, employeeID, date)
	if err != nil {
		return nil, "", fmt.Errorf("load attendance %s/%s: %w", employeeID, date, err)
	}

	record, outcome := Decide(current, employeeID, name, date, now, s.minDwell)

	switch outcome {
	case OutcomeCheckedIn:
		if err := s.store.InsertAttendance(ctx, &record); err != nil {
			if errors.Is(err, storage.ErrAttendanceExists) {
				return s.reload(ctx, employeeID, date, OutcomeAlreadyCheckedIn)
			}
			return nil, "", fmt.Errorf("persist check-in %s/%s: %w", employeeID, date, err)
		}
	case OutcomeCheckedOut:
		if err := s.store.SetAttendanceCheckOut(ctx, employeeID, date, *record.CheckOut); err != nil {
			if errors.Is(err, storage.ErrAttendanceExists) {
				return s.reload(ctx, employeeID, date, OutcomeAlreadyCheckedOut)
			}
			return nil, "", fmt.Errorf("persist check-out %s/%s: %w", employeeID, date, err)
		}
	}

	return &record, outcome, nil
}

// reload fetches the record written by the winning racer. Best effort:
// the race outcome stands even if the read fails.
func (s *Service) reload(ctx context.Context, employeeID, date string, outcome Outcome) (*models.AttendanceRecord, Outcome, error) {
	record, err := s.store.GetAttendance(ctx, employeeID, date)
	if err != nil {
		return nil, outcome, nil
	}
	return record, outcome, nil
}
