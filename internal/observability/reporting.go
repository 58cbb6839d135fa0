package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/config"
)

// ReportContext carries request context alongside a reported failure.
type ReportContext struct {
	Path      string
	Method    string
	SubjectID string
	RequestID string
}

// Reporter receives non-operational failures. Implementations must not block
// the response path.
type Reporter interface {
	Report(err error, rctx ReportContext)
}

type reportEntry struct {
	err  error
	rctx ReportContext
}

// AsyncReporter queues failures and forwards them from a background worker.
// When the queue is full, new reports are dropped rather than blocking.
type AsyncReporter struct {
	logger     *zap.Logger
	webhookURL string
	client     *http.Client
	queue      chan reportEntry
	done       chan struct{}
	closeOnce  sync.Once
}

// NewAsyncReporter starts the background worker.
func NewAsyncReporter(logger *zap.Logger, cfg config.ReportingConfig) *AsyncReporter {
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	r := &AsyncReporter{
		logger:     logger,
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		queue:      make(chan reportEntry, size),
		done:       make(chan struct{}),
	}
	go r.run()
	return r
}

// Report enqueues a failure for forwarding. Never blocks.
func (r *AsyncReporter) Report(err error, rctx ReportContext) {
	if r == nil || err == nil {
		return
	}
	select {
	case r.queue <- reportEntry{err: err, rctx: rctx}:
	default:
		r.logger.Warn("failure report dropped, queue full", zap.Error(err))
	}
}

// Close drains pending reports until ctx expires.
func (r *AsyncReporter) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *AsyncReporter) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.forward(entry)
	}
}

func (r *AsyncReporter) forward(entry reportEntry) {
	r.logger.Error("failure reported",
		zap.Error(entry.err),
		zap.String("path", entry.rctx.Path),
		zap.String("method", entry.rctx.Method),
		zap.String("subject_id", entry.rctx.SubjectID),
		zap.String("request_id", entry.rctx.RequestID))
	r.sendWebhook(entry)
}

func (r *AsyncReporter) sendWebhook(entry reportEntry) {
	if r.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"error":     entry.err.Error(),
		"path":      entry.rctx.Path,
		"method":    entry.rctx.Method,
		"subjectId": entry.rctx.SubjectID,
		"requestId": entry.rctx.RequestID,
	})
	if err != nil {
		r.logger.Warn("failure report payload", zap.Error(err))
		return
	}

	resp, err := r.client.Post(r.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		r.logger.Warn("failure report webhook", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		r.logger.Warn("failure report webhook rejected", zap.Int("status", resp.StatusCode))
	}
}
