package dto

import "github.com/google/uuid"

// EnrollEmployeeRequest enrolls an employee with a precomputed reference
// descriptor. Enrollment by photo uses multipart form upload instead.
type EnrollEmployeeRequest struct {
	EmployeeID string    `json:"employee_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Descriptor []float32 `json:"descriptor" binding:"required"`
}

type EmployeeResponse struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	Reenrolled bool      `json:"reenrolled,omitempty"`
	CreatedAt  string    `json:"created_at"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type EmployeeListResponse struct {
	Employees  []EmployeeResponse `json:"employees"`
	Pagination Pagination         `json:"pagination"`
}

// DescriptorResponse carries one active reference descriptor for clients
// that match locally.
type DescriptorResponse struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Descriptor []float32 `json:"descriptor"`
}
