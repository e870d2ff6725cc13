package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/attend/internal/attendance"
	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/storage"
	"github.com/your-org/attend/pkg/dto"
)

type AttendanceHandler struct {
	db  *storage.PostgresStore
	loc *time.Location
}

func NewAttendanceHandler(db *storage.PostgresStore, loc *time.Location) *AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceHandler{db: db, loc: loc}
}

// List returns the attendance records for one day (default today in the
// configured zone), newest check-in first.
func (h *AttendanceHandler) List(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = attendance.DayKey(time.Now(), h.loc)
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
		return
	}

	records, err := h.db.ListAttendanceByDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.AttendanceResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, attendanceResponse(r))
	}

	c.JSON(http.StatusOK, dto.AttendanceListResponse{
		Date:    date,
		Records: resp,
		Total:   len(resp),
	})
}

func attendanceResponse(r models.AttendanceRecord) dto.AttendanceResponse {
	resp := dto.AttendanceResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Date:         r.Date,
		CheckIn:      r.CheckIn.Format(time.RFC3339),
		Status:       string(r.Status),
	}
	if r.CheckOut != nil {
		resp.CheckOut = r.CheckOut.Format(time.RFC3339)
	}
	return resp
}
