package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// StatusConfirm reports a bank transfer confirmed on our side.
	StatusConfirm = "confirm"
	// StatusDecline reports a bank transfer declined on our side.
	StatusDecline = "decline"
)

// Update is the transaction-status payload pushed to the ride platform
// after a bank transfer payment is confirmed or declined.
type Update struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Bank          string `json:"bank,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	DeclineReason string `json:"decline_reason,omitempty"`
}

// Notifier delivers transaction-status updates to downstream systems.
type Notifier interface {
	Send(ctx context.Context, update Update) error
}

// LoggerNotifier writes updates to the structured logger. Used in dev
// mode when no platform endpoint is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the update to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, update Update) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("transaction status update",
		"transaction_id", update.TransactionID, "status", update.Status)
	return nil
}

// PlatformNotifier posts status updates to the ride platform's
// change-transaction-status endpoint.
type PlatformNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewPlatformNotifier constructs a notifier against the platform API.
func NewPlatformNotifier(baseURL, token string) *PlatformNotifier {
	return &PlatformNotifier{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the update. Any non-2xx response is an error.
func (n *PlatformNotifier) Send(ctx context.Context, update Update) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/change-transaction-status", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("platform returned status %d", resp.StatusCode)
	}
	return nil
}

// AsyncNotifier decouples delivery from the request path: updates are
// queued and retried with exponential backoff so a platform outage never
// blocks or fails a confirmation.
type AsyncNotifier struct {
	inner   Notifier
	logger  *slog.Logger
	queue   chan Update
	retries int
	backoff time.Duration
	done    chan struct{}
}

// NewAsyncNotifier wraps a notifier with a buffered delivery worker.
func NewAsyncNotifier(inner Notifier, logger *slog.Logger) *AsyncNotifier {
	n := &AsyncNotifier{
		inner:   inner,
		logger:  logger,
		queue:   make(chan Update, 128),
		retries: 3,
		backoff: time.Second,
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Send enqueues the update. A full queue drops the update with a log
// line rather than blocking the caller.
func (n *AsyncNotifier) Send(_ context.Context, update Update) error {
	select {
	case n.queue <- update:
		return nil
	default:
		n.logger.Warn("notification queue full, dropping update",
			"transaction_id", update.TransactionID)
		return nil
	}
}

// Close stops accepting updates and waits for the worker to drain.
func (n *AsyncNotifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for update := range n.queue {
		n.deliver(update)
	}
}

func (n *AsyncNotifier) deliver(update Update) {
	wait := n.backoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := n.inner.Send(ctx, update)
		cancel()
		if err == nil {
			return
		}
		if attempt > n.retries {
			n.logger.Error("giving up on status update",
				"transaction_id", update.TransactionID, "status", update.Status, "error", err)
			return
		}
		n.logger.Warn("status update failed, retrying",
			"transaction_id", update.TransactionID, "attempt", attempt, "error", err)
		time.Sleep(wait)
		wait *= 2
	}
}
