package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/attend/internal/attendance"
	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/storage"
)

type staticCandidates []Candidate

func (s staticCandidates) ActiveDescriptors() []Candidate { return s }

type fakeAttendance struct {
	calls   int
	outcome attendance.Outcome
	err     error
}

func (f *fakeAttendance) Observe(_ context.Context, employeeID, name string, now time.Time) (*models.AttendanceRecord, attendance.Outcome, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.AttendanceRecord{
		EmployeeID:   employeeID,
		EmployeeName: name,
		Date:         attendance.DayKey(now, time.UTC),
		CheckIn:      now,
		Status:       models.StatusCheckedIn,
	}, f.outcome, nil
}

type fakeAlerts struct {
	events []*models.UnknownFaceEvent
	err    error
}

func (f *fakeAlerts) SaveUnknownFace(_ context.Context, ev *models.UnknownFaceEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type fakeSnapshots struct {
	objects map[string][]byte
	err     error
}

func (f *fakeSnapshots) PutSnapshot(_ context.Context, key string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data
	return nil
}

type fakeNotifier struct {
	recognized []interface{}
	alerts     []interface{}
	err        error
}

func (f *fakeNotifier) PublishRecognized(_ context.Context, _ string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.recognized = append(f.recognized, payload)
	return nil
}

func (f *fakeNotifier) PublishAlert(_ context.Context, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, payload)
	return nil
}

func testConfig() EngineConfig {
	return EngineConfig{
		MatchThreshold:      0.6,
		MatchCooldown:       30 * time.Second,
		UnknownFaceThrottle: 30 * time.Second,
	}
}

func enrolled() staticCandidates {
	return staticCandidates{
		{EmployeeID: "emp-1", Name: "Alice", Descriptor: []float32{0, 0, 0}},
	}
}

func obsAt(descriptor []float32, at time.Time) models.Observation {
	return models.Observation{Descriptor: descriptor, Confidence: 0.95, ObservedAt: at}
}

func TestEvaluateNoFace(t *testing.T) {
	svc := &fakeAttendance{}
	alerts := &fakeAlerts{}
	engine := NewEngine(testConfig(), enrolled(), svc, alerts, nil, nil)

	result, err := engine.Evaluate(context.Background(), models.Observation{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoFace, result.Outcome)
	assert.Equal(t, 0, svc.calls)
	assert.Empty(t, alerts.events)
}

func TestEvaluateCooldownAdmitsOneSighting(t *testing.T) {
	svc := &fakeAttendance{outcome: attendance.OutcomeCheckedIn}
	notifier := &fakeNotifier{}
	engine := NewEngine(testConfig(), enrolled(), svc, &fakeAlerts{}, nil, notifier)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	result, err := engine.Evaluate(context.Background(), obsAt([]float32{0, 0, 0}, now))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecognized, result.Outcome)
	assert.Equal(t, attendance.OutcomeCheckedIn, result.Transition)
	require.NotNil(t, result.Match)
	assert.Equal(t, "emp-1", result.Match.EmployeeID)

	// A camera running at a few FPS sees the same face again seconds later.
	result, err = engine.Evaluate(context.Background(), obsAt([]float32{0, 0, 0}, now.Add(5*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCoolingDown, result.Outcome)

	assert.Equal(t, 1, svc.calls)
	assert.Len(t, notifier.recognized, 1)
}

func TestEvaluateDwellSequence(t *testing.T) {
	store := &scriptedStore{}
	svc := attendance.NewService(store, time.Hour, time.UTC)
	notifier := &fakeNotifier{}
	engine := NewEngine(testConfig(), enrolled(), svc, &fakeAlerts{}, nil, notifier)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	result, err := engine.Evaluate(ctx, obsAt([]float32{0, 0, 0}, start))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeCheckedIn, result.Transition)

	// Well past the cooldown but inside the dwell guard.
	result, err = engine.Evaluate(ctx, obsAt([]float32{0, 0, 0}, start.Add(30*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecognized, result.Outcome)
	assert.Equal(t, attendance.OutcomeTooSoon, result.Transition)

	result, err = engine.Evaluate(ctx, obsAt([]float32{0, 0, 0}, start.Add(62*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeCheckedOut, result.Transition)
	require.NotNil(t, result.Record)
	assert.Equal(t, models.StatusCheckedOut, result.Record.Status)

	// Rejected transitions still notify; the dashboard shows every sighting.
	assert.Len(t, notifier.recognized, 3)
}

func TestEvaluateLostInsertRace(t *testing.T) {
	store := &scriptedStore{insertErr: storage.ErrAttendanceExists}
	svc := attendance.NewService(store, time.Hour, time.UTC)
	notifier := &fakeNotifier{}
	engine := NewEngine(testConfig(), enrolled(), svc, &fakeAlerts{}, nil, notifier)

	result, err := engine.Evaluate(context.Background(),
		obsAt([]float32{0, 0, 0}, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecognized, result.Outcome)
	assert.Equal(t, attendance.OutcomeAlreadyCheckedIn, result.Transition)
	assert.Len(t, notifier.recognized, 1)
}

func TestEvaluateUnknownFaceThrottled(t *testing.T) {
	alerts := &fakeAlerts{}
	snapshots := &fakeSnapshots{}
	notifier := &fakeNotifier{}
	engine := NewEngine(testConfig(), enrolled(), &fakeAttendance{}, alerts, snapshots, notifier)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	stranger := []float32{5, 5, 5}
	obs := obsAt(stranger, now)
	obs.Snapshot = []byte("jpeg-bytes")

	result, err := engine.Evaluate(ctx, obs)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknown, result.Outcome)
	require.NotNil(t, result.Event)
	assert.NotEmpty(t, result.Event.SnapshotKey)
	assert.Contains(t, snapshots.objects, result.Event.SnapshotKey)
	assert.Len(t, alerts.events, 1)
	assert.Len(t, notifier.alerts, 1)

	// More strangers inside the window produce no further events.
	result, err = engine.Evaluate(ctx, obsAt(stranger, now.Add(10*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeThrottled, result.Outcome)
	assert.Len(t, alerts.events, 1)
	assert.Len(t, notifier.alerts, 1)

	result, err = engine.Evaluate(ctx, obsAt(stranger, now.Add(31*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknown, result.Outcome)
	assert.Len(t, alerts.events, 2)
}

func TestEvaluateSnapshotFailureKeepsEvent(t *testing.T) {
	alerts := &fakeAlerts{}
	snapshots := &fakeSnapshots{err: errors.New("minio down")}
	engine := NewEngine(testConfig(), enrolled(), &fakeAttendance{}, alerts, snapshots, nil)

	obs := obsAt([]float32{5, 5, 5}, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	obs.Snapshot = []byte("jpeg-bytes")

	result, err := engine.Evaluate(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknown, result.Outcome)
	assert.Empty(t, result.Event.SnapshotKey)
	assert.Len(t, alerts.events, 1)
}

func TestEvaluateNotifierFailureIgnored(t *testing.T) {
	svc := &fakeAttendance{outcome: attendance.OutcomeCheckedIn}
	notifier := &fakeNotifier{err: errors.New("nats down")}
	engine := NewEngine(testConfig(), enrolled(), svc, &fakeAlerts{}, nil, notifier)

	result, err := engine.Evaluate(context.Background(),
		obsAt([]float32{0, 0, 0}, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecognized, result.Outcome)
}

func TestEvaluateFailedWriteNotRetriedInsideWindow(t *testing.T) {
	svc := &fakeAttendance{err: errors.New("postgres down")}
	engine := NewEngine(testConfig(), enrolled(), svc, &fakeAlerts{}, nil, nil)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := engine.Evaluate(context.Background(), obsAt([]float32{0, 0, 0}, now))
	require.Error(t, err)

	// The cooldown was marked when the observation was accepted.
	result, err := engine.Evaluate(context.Background(), obsAt([]float32{0, 0, 0}, now.Add(5*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCoolingDown, result.Outcome)
	assert.Equal(t, 1, svc.calls)
}

// scriptedStore is a minimal attendance.Store for wiring the real service
// into engine tests.
type scriptedStore struct {
	record    *models.AttendanceRecord
	insertErr error
}

func (s *scriptedStore) GetAttendance(_ context.Context, _, _ string) (*models.AttendanceRecord, error) {
	if s.record == nil {
		return nil, nil
	}
	cp := *s.record
	return &cp, nil
}

func (s *scriptedStore) InsertAttendance(_ context.Context, r *models.AttendanceRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	cp := *r
	s.record = &cp
	return nil
}

func (s *scriptedStore) SetAttendanceCheckOut(_ context.Context, _, _ string, checkOut time.Time) error {
	if s.record == nil || s.record.Status != models.StatusCheckedIn {
		return storage.ErrAttendanceExists
	}
	s.record.CheckOut = &checkOut
	s.record.Status = models.StatusCheckedOut
	return nil
}
