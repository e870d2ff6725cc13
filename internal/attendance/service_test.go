package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/storage"
)

// memStore keeps attendance records keyed by employee and day. Errors can
// be injected per call to simulate lost races.
type memStore struct {
	records       map[string]*models.AttendanceRecord
	insertErr     error
	checkOutErr   error
	insertCalls   int
	checkOutCalls int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.AttendanceRecord)}
}

func key(employeeID, date string) string { return employeeID + "/" + date }

func (m *memStore) GetAttendance(_ context.Context, employeeID, date string) (*models.AttendanceRecord, error) {
	if r, ok := m.records[key(employeeID, date)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) InsertAttendance(_ context.Context, r *models.AttendanceRecord) error {
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.records[key(r.EmployeeID, r.Date)]; ok {
		return storage.ErrAttendanceExists
	}
	cp := *r
	m.records[key(r.EmployeeID, r.Date)] = &cp
	return nil
}

func (m *memStore) SetAttendanceCheckOut(_ context.Context, employeeID, date string, checkOut time.Time) error {
	m.checkOutCalls++
	if m.checkOutErr != nil {
		return m.checkOutErr
	}
	r, ok := m.records[key(employeeID, date)]
	if !ok || r.Status != models.StatusCheckedIn {
		return storage.ErrAttendanceExists
	}
	r.CheckOut = &checkOut
	r.Status = models.StatusCheckedOut
	return nil
}

func TestObserveFullDay(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.Hour, time.UTC)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	record, outcome, err := svc.Observe(ctx, "emp-1", "Alice", start)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckedIn, outcome)
	assert.Equal(t, "2025-03-01", record.Date)

	// Half an hour in: the dwell guard holds and nothing is written.
	_, outcome, err = svc.Observe(ctx, "emp-1", "Alice", start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OutcomeTooSoon, outcome)
	assert.Equal(t, 0, store.checkOutCalls)

	record, outcome, err = svc.Observe(ctx, "emp-1", "Alice", start.Add(62*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckedOut, outcome)
	require.NotNil(t, record.CheckOut)

	// Any later sighting that day is a no-op.
	_, outcome, err = svc.Observe(ctx, "emp-1", "Alice", start.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCheckedOut, outcome)
	assert.Equal(t, 1, store.insertCalls)
	assert.Equal(t, 1, store.checkOutCalls)
}

func TestObserveNewDayStartsFresh(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.Hour, time.UTC)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 1, 23, 50, 0, 0, time.UTC)
	_, outcome, err := svc.Observe(ctx, "emp-1", "Alice", day1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckedIn, outcome)

	// Ten minutes later it is a new calendar day, so a new check-in.
	record, outcome, err := svc.Observe(ctx, "emp-1", "Alice", day1.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckedIn, outcome)
	assert.Equal(t, "2025-03-02", record.Date)
}

func TestObserveLostInsertRace(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.Hour, time.UTC)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	// Another writer lands between our read and our insert.
	winner := &models.AttendanceRecord{
		EmployeeID:   "emp-1",
		EmployeeName: "Alice",
		Date:         "2025-03-01",
		CheckIn:      now.Add(-time.Second),
		Status:       models.StatusCheckedIn,
	}
	store.insertErr = storage.ErrAttendanceExists
	store.records[key("emp-1", "2025-03-01")] = winner

	record, outcome, err := svc.Observe(ctx, "emp-1", "Alice", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCheckedIn, outcome)
	require.NotNil(t, record)
	assert.Equal(t, winner.CheckIn, record.CheckIn)
}

func TestObserveLostCheckoutRace(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.Hour, time.UTC)
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	store.records[key("emp-1", "2025-03-01")] = &models.AttendanceRecord{
		EmployeeID:   "emp-1",
		EmployeeName: "Alice",
		Date:         "2025-03-01",
		CheckIn:      checkIn,
		Status:       models.StatusCheckedIn,
	}
	store.checkOutErr = storage.ErrAttendanceExists

	_, outcome, err := svc.Observe(ctx, "emp-1", "Alice", checkIn.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCheckedOut, outcome)
}
