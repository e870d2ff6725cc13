package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/attend/internal/storage"
	"github.com/your-org/attend/pkg/dto"
)

type AlertHandler struct {
	db        *storage.PostgresStore
	snapshots *storage.SnapshotStore
}

func NewAlertHandler(db *storage.PostgresStore, snapshots *storage.SnapshotStore) *AlertHandler {
	return &AlertHandler{db: db, snapshots: snapshots}
}

// List returns the most recent unknown-face events, newest first.
func (h *AlertHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.db.ListUnknownFaces(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.UnknownFaceResponse, 0, len(events))
	for _, ev := range events {
		r := dto.UnknownFaceResponse{
			ID:         ev.ID,
			DetectedAt: ev.DetectedAt.Format(time.RFC3339),
			Confidence: ev.Confidence,
			CreatedAt:  ev.CreatedAt.Format(time.RFC3339),
		}
		if ev.SnapshotKey != "" {
			r.SnapshotURL = "/v1/alerts/" + ev.ID.String() + "/snapshot"
		}
		resp = append(resp, r)
	}

	c.JSON(http.StatusOK, dto.UnknownFaceListResponse{Alerts: resp, Total: len(resp)})
}

// Snapshot proxies the unknown-face snapshot image from MinIO.
func (h *AlertHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	event, err := h.db.GetUnknownFace(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if event == nil || event.SnapshotKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	data, err := h.snapshots.GetSnapshot(c.Request.Context(), event.SnapshotKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}
