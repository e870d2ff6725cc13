package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/attend/internal/api/handlers"
	"github.com/your-org/attend/internal/api/ws"
	"github.com/your-org/attend/internal/auth"
	"github.com/your-org/attend/internal/queue"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
)

type RouterConfig struct {
	APIKey    string
	DB        *storage.PostgresStore
	Snapshots *storage.SnapshotStore
	Notifier  *queue.Notifier
	Registry  *recognition.Registry
	Engine    *recognition.Engine
	Hub       *ws.Hub
	Location  *time.Location
	// EmbedFn extracts a face descriptor from image bytes, for photo
	// enrollment. Nil when the vision model is unavailable.
	EmbedFn func(imageData []byte) ([]float32, error)
	// DescriptorDim validates enrollment descriptors; 0 disables.
	DescriptorDim int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Snapshots, cfg.Notifier)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Employees
	employeeH := handlers.NewEmployeeHandler(cfg.DB, cfg.Registry)
	employeeH.EmbedFn = cfg.EmbedFn
	employeeH.DescriptorDim = cfg.DescriptorDim
	v1.POST("/employees", employeeH.Create)
	v1.GET("/employees", employeeH.List)
	v1.GET("/employees/descriptors", employeeH.Descriptors)
	v1.DELETE("/employees/:id", employeeH.Deactivate)

	// Observations
	observationH := handlers.NewObservationHandler(cfg.Engine)
	v1.POST("/observations", observationH.Evaluate)

	// Attendance
	attendanceH := handlers.NewAttendanceHandler(cfg.DB, cfg.Location)
	v1.GET("/attendance", attendanceH.List)

	// Alerts
	alertH := handlers.NewAlertHandler(cfg.DB, cfg.Snapshots)
	v1.GET("/alerts", alertH.List)
	v1.GET("/alerts/:id/snapshot", alertH.Snapshot)

	return r
}
