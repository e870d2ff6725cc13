package dto

import "github.com/google/uuid"

type AttendanceResponse struct {
	ID           uuid.UUID `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Date         string    `json:"date"`
	CheckIn      string    `json:"check_in"`
	CheckOut     string    `json:"check_out,omitempty"`
	Status       string    `json:"status"`
}

type AttendanceListResponse struct {
	Date    string               `json:"date"`
	Records []AttendanceResponse `json:"records"`
	Total   int                  `json:"total"`
}
