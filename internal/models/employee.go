package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is an enrolled person with a reference face descriptor.
// EmployeeID is the stable external identifier (badge number); ID is the
// database key. Deactivated employees are kept for historical attendance
// but excluded from matching.
type Employee struct {
	ID         uuid.UUID `json:"id" db:"id"`
	EmployeeID string    `json:"employee_id" db:"employee_id"`
	Name       string    `json:"name" db:"name"`
	Descriptor []float32 `json:"-" db:"descriptor"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
