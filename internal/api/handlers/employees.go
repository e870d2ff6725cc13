package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
	"github.com/your-org/attend/pkg/dto"
)

type EmployeeHandler struct {
	db       *storage.PostgresStore
	registry *recognition.Registry
	// EmbedFn extracts a descriptor from a face photo. Nil when the
	// vision model is unavailable; photo enrollment then returns 503.
	EmbedFn func(imageData []byte) ([]float32, error)
	// DescriptorDim rejects descriptors of the wrong length; 0 disables
	// the check.
	DescriptorDim int
}

func NewEmployeeHandler(db *storage.PostgresStore, registry *recognition.Registry) *EmployeeHandler {
	return &EmployeeHandler{db: db, registry: registry}
}

// Create enrolls an employee. JSON bodies carry a precomputed descriptor;
// multipart bodies carry a face photo that is embedded server-side.
// Re-enrolling a deactivated employee id reactivates it.
func (h *EmployeeHandler) Create(c *gin.Context) {
	var (
		employeeID, name string
		descriptor       []float32
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var err error
		employeeID, name, descriptor, err = h.enrollFromPhoto(c)
		if err != nil {
			return // enrollFromPhoto wrote the response
		}
	} else {
		var req dto.EnrollEmployeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		employeeID, name, descriptor = req.EmployeeID, req.Name, req.Descriptor
	}

	if h.DescriptorDim > 0 && len(descriptor) != h.DescriptorDim {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "descriptor must have " + strconv.Itoa(h.DescriptorDim) + " dimensions",
		})
		return
	}

	existing, err := h.db.GetEmployeeByExternalID(c.Request.Context(), employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if existing != nil && existing.Active {
		c.JSON(http.StatusConflict, gin.H{"error": "employee id already exists"})
		return
	}

	var (
		employee   *models.Employee
		reenrolled bool
		status     = http.StatusCreated
	)
	if existing != nil {
		employee, err = h.db.ReactivateEmployee(c.Request.Context(), employeeID, name, descriptor)
		reenrolled = true
		status = http.StatusOK
	} else {
		employee, err = h.db.CreateEmployee(c.Request.Context(), employeeID, name, descriptor)
	}
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmployee) {
			c.JSON(http.StatusConflict, gin.H{"error": "employee id already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.Refresh(c.Request.Context()); err != nil {
		slog.Warn("refresh registry after enrollment", "error", err)
	}

	c.JSON(status, dto.EmployeeResponse{
		ID:         employee.ID,
		EmployeeID: employee.EmployeeID,
		Name:       employee.Name,
		Active:     employee.Active,
		Reenrolled: reenrolled,
		CreatedAt:  employee.CreatedAt.Format(time.RFC3339),
	})
}

// enrollFromPhoto reads the multipart form and embeds the face photo.
// On failure it writes the error response and returns a non-nil error.
func (h *EmployeeHandler) enrollFromPhoto(c *gin.Context) (string, string, []float32, error) {
	employeeID := c.PostForm("employee_id")
	name := c.PostForm("name")
	if employeeID == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id and name are required"})
		return "", "", nil, errors.New("missing fields")
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return "", "", nil, err
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return "", "", nil, err
	}

	if h.EmbedFn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vision model not available; enroll with a descriptor"})
		return "", "", nil, errors.New("no embedder")
	}

	descriptor, err := h.EmbedFn(imageData)
	if err != nil {
		// Enrollment requires a successfully extracted descriptor.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to extract face descriptor: " + err.Error()})
		return "", "", nil, err
	}

	return employeeID, name, descriptor, nil
}

func (h *EmployeeHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	activeOnly := c.DefaultQuery("active", "true") != "false"

	employees, total, err := h.db.ListEmployees(c.Request.Context(), activeOnly, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, dto.EmployeeResponse{
			ID:         e.ID,
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			Active:     e.Active,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	c.JSON(http.StatusOK, dto.EmployeeListResponse{
		Employees: resp,
		Pagination: dto.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// Descriptors returns the active reference descriptors for clients that
// run the recognition model locally.
func (h *EmployeeHandler) Descriptors(c *gin.Context) {
	employees, err := h.db.ListActiveDescriptors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.DescriptorResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, dto.DescriptorResponse{
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			Descriptor: e.Descriptor,
		})
	}

	c.JSON(http.StatusOK, gin.H{"employees": resp, "total": len(resp)})
}

// Deactivate soft-deletes an employee; attendance history is preserved.
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	employeeID := c.Param("id")

	if err := h.db.DeactivateEmployee(c.Request.Context(), employeeID); err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.Refresh(c.Request.Context()); err != nil {
		slog.Warn("refresh registry after deactivation", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
