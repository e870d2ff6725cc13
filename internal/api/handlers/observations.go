package handlers

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/pkg/dto"
)

type ObservationHandler struct {
	engine *recognition.Engine
}

func NewObservationHandler(engine *recognition.Engine) *ObservationHandler {
	return &ObservationHandler{engine: engine}
}

// Evaluate processes one sampled observation from a camera client:
// match, debounce, attendance transition or unknown-face alert. The
// response reports what happened; suppressed observations are 200s too,
// they are simply outcomes.
func (h *ObservationHandler) Evaluate(c *gin.Context) {
	var req dto.ObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	obs := models.Observation{
		Descriptor: req.Descriptor,
		Confidence: req.Confidence,
	}

	if req.ObservedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ObservedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid observed_at"})
			return
		}
		obs.ObservedAt = t
	}

	if req.Snapshot != "" {
		data, err := base64.StdEncoding.DecodeString(req.Snapshot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot encoding"})
			return
		}
		obs.Snapshot = data
	}

	result, err := h.engine.Evaluate(c.Request.Context(), obs)
	if err != nil {
		// Fatal for this observation only; the client's next tick is a
		// fresh evaluation.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	resp := dto.ObservationResponse{Outcome: string(result.Outcome)}
	if result.Match != nil {
		resp.Match = &dto.MatchInfo{
			EmployeeID: result.Match.EmployeeID,
			Name:       result.Match.Name,
			Distance:   result.Match.Distance,
			Confidence: result.Match.Confidence,
		}
	}
	if result.Transition != "" {
		resp.Transition = string(result.Transition)
	}
	if result.Record != nil {
		r := attendanceResponse(*result.Record)
		resp.Attendance = &r
	}
	if result.Event != nil {
		resp.AlertID = result.Event.ID.String()
	}

	c.JSON(http.StatusOK, resp)
}
