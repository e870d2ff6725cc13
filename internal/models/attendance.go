package models

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	StatusCheckedIn  AttendanceStatus = "checked-in"
	StatusCheckedOut AttendanceStatus = "checked-out"
)

// AttendanceRecord is one employee's attendance for one calendar day.
// Date is the day key in the deployment time zone, formatted 2006-01-02.
// The database enforces at most one record per (employee_id, date).
type AttendanceRecord struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	EmployeeID   string           `json:"employee_id" db:"employee_id"`
	EmployeeName string           `json:"employee_name" db:"employee_name"`
	Date         string           `json:"date" db:"date"`
	CheckIn      time.Time        `json:"check_in" db:"check_in"`
	CheckOut     *time.Time       `json:"check_out,omitempty" db:"check_out"`
	Status       AttendanceStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}
