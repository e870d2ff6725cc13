package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	NotificationsStreamName = "NOTIFICATIONS"
	SubjectBase             = "attendance"
	SubjectRecognized       = SubjectBase + ".recognized"
	SubjectAlert            = SubjectBase + ".alert"
)

// Notifier publishes recognition and alert notifications to JetStream.
// Delivery is advisory and at-most-once from the consumer's point of view;
// attendance correctness never depends on a notification arriving.
type Notifier struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewNotifier(natsURL string) (*Notifier, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Notifier{nc: nc, js: js}, nil
}

// EnsureStreams creates the JetStream stream if it doesn't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (n *Notifier) EnsureStreams(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        NotificationsStreamName,
		Subjects:    []string{SubjectBase + ".>"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     1000000,
		Storage:     jetstream.FileStorage,
		Description: "Recognition and unknown-face notifications",
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := n.js.CreateOrUpdateStream(opCtx, cfg)
		cancel()
		if err == nil {
			slog.Info("ensured NATS stream", "name", cfg.Name)
			return nil
		}
		if attempt == maxAttempts {
			return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
		}
		slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// PublishRecognized publishes a recognition notification for an employee.
func (n *Notifier) PublishRecognized(ctx context.Context, employeeID string, payload interface{}) error {
	return n.publish(ctx, fmt.Sprintf("%s.%s", SubjectRecognized, employeeID), payload)
}

// PublishAlert publishes an unknown-face alert.
func (n *Notifier) PublishAlert(ctx context.Context, payload interface{}) error {
	return n.publish(ctx, SubjectAlert, payload)
}

func (n *Notifier) publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (n *Notifier) Ping() error {
	if !n.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (n *Notifier) Close() {
	n.nc.Close()
}
