package attendance

import (
	"time"

	"github.com/your-org/attend/internal/models"
)

// Outcome classifies one observation's effect on the day's record.
type Outcome string

const (
	// OutcomeCheckedIn: no record existed, a new one was created.
	OutcomeCheckedIn Outcome = "checked_in"
	// OutcomeCheckedOut: the dwell guard passed and the record was closed.
	OutcomeCheckedOut Outcome = "checked_out"
	// OutcomeTooSoon: checkout attempted before the minimum dwell elapsed.
	// The record is untouched.
	OutcomeTooSoon Outcome = "too_soon"
	// OutcomeAlreadyCheckedOut: the day's record is already closed.
	OutcomeAlreadyCheckedOut Outcome = "already_checked_out"
	// OutcomeAlreadyCheckedIn: the insert lost a race to a concurrent
	// check-in for the same employee and day.
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
)

// DayKey returns the calendar-day key for t in the given zone.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Decide computes the attendance transition for one observation of an
// employee. It is pure: given the current record (nil when absent) and
// the observation time it returns the record as it should be persisted
// and the outcome, without touching storage. Rejected transitions return
// the input record unchanged.
func Decide(current *models.AttendanceRecord, employeeID, name, date string, now time.Time, minDwell time.Duration) (models.AttendanceRecord, Outcome) {
	if current == nil {
		return models.AttendanceRecord{
			EmployeeID:   employeeID,
			EmployeeName: name,
			Date:         date,
			CheckIn:      now,
			Status:       models.StatusCheckedIn,
		}, OutcomeCheckedIn
	}

	if current.Status == models.StatusCheckedOut {
		return *current, OutcomeAlreadyCheckedOut
	}

	if now.Sub(current.CheckIn) < minDwell {
		return *current, OutcomeTooSoon
	}

	updated := *current
	checkOut := now
	updated.CheckOut = &checkOut
	updated.Status = models.StatusCheckedOut
	return updated, OutcomeCheckedOut
}
