package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/attend/internal/api"
	"github.com/your-org/attend/internal/api/ws"
	"github.com/your-org/attend/internal/attendance"
	"github.com/your-org/attend/internal/config"
	"github.com/your-org/attend/internal/observability"
	"github.com/your-org/attend/internal/queue"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
	"github.com/your-org/attend/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting attendance API service", "port", cfg.Server.Port)

	loc, err := cfg.Recognition.Location()
	if err != nil {
		slog.Error("resolve timezone", "timezone", cfg.Recognition.Timezone, "error", err)
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	snapshots, err := storage.NewSnapshotStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := snapshots.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	notifier, err := queue.NewNotifier(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer notifier.Close()

	if err := notifier.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Load the active reference descriptors
	registry := recognition.NewRegistry(db)
	if err := registry.Refresh(context.Background()); err != nil {
		slog.Error("load descriptor registry", "error", err)
		os.Exit(1)
	}
	slog.Info("descriptor registry loaded", "active_employees", registry.Size())

	// Attendance state machine + recognition engine
	svc := attendance.NewService(db, cfg.Recognition.MinDwell, loc)
	engine := recognition.NewEngine(recognition.EngineConfig{
		MatchThreshold:      cfg.Recognition.MatchThreshold,
		MatchCooldown:       cfg.Recognition.MatchCooldown,
		UnknownFaceThrottle: cfg.Recognition.UnknownFaceThrottle,
	}, registry, svc, db, snapshots, notifier)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broadcast notifications to WebSocket clients
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create notification consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.ConsumeNotifications(ctx, "api-notify", func(ctx context.Context, msg jetstream.Msg) error {
		noteType := "recognized"
		if strings.HasPrefix(msg.Subject(), queue.SubjectAlert) {
			noteType = "alert"
		}
		hub.Broadcast(noteType, msg.Data())
		return nil
	})
	if err != nil {
		slog.Warn("start notification consumer", "error", err)
	}

	// Optional ONNX embedder for photo enrollment
	var embedFn func([]byte) ([]float32, error)
	if cfg.Vision.ModelPath != "" {
		ort.SetSharedLibraryPath(getONNXLibPath())
		if err := ort.InitializeEnvironment(); err != nil {
			slog.Warn("onnx runtime init failed, photo enrollment unavailable", "error", err)
		} else {
			embedder, err := vision.NewEmbedder(cfg.Vision.ModelPath,
				cfg.Vision.InputWidth, cfg.Vision.InputHeight, cfg.Recognition.DescriptorDim)
			if err != nil {
				slog.Warn("load embedding model failed, photo enrollment unavailable", "error", err)
			} else {
				embedFn = embedder.EmbedImage
				defer embedder.Close()
				defer ort.DestroyEnvironment()
				slog.Info("embedding model loaded", "path", cfg.Vision.ModelPath)
			}
		}
	}

	// Prune old unknown-face events and their snapshots
	go func() {
		ticker := time.NewTicker(cfg.Retention.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepAlerts(ctx, db, snapshots, cfg.Retention.UnknownFacesMaxAge)
			}
		}
	}()

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:        cfg.Server.APIKey,
		DB:            db,
		Snapshots:     snapshots,
		Notifier:      notifier,
		Registry:      registry,
		Engine:        engine,
		Hub:           hub,
		Location:      loc,
		EmbedFn:       embedFn,
		DescriptorDim: cfg.Recognition.DescriptorDim,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

func sweepAlerts(ctx context.Context, db *storage.PostgresStore, snapshots *storage.SnapshotStore, maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	keys, err := db.DeleteUnknownFacesBefore(ctx, cutoff)
	if err != nil {
		slog.Warn("sweep: delete unknown faces", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := snapshots.DeleteSnapshots(ctx, keys); err != nil {
		slog.Warn("sweep: delete snapshots", "error", err)
		return
	}
	slog.Info("sweep: pruned unknown-face events", "deleted", len(keys), "cutoff", cutoff)
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
