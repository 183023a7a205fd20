package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PGHandler is an slog.Handler that batches ERROR+ logs to PostgreSQL. Attrs
// added through WithAttrs are kept and written with every record.
type PGHandler struct {
	db      *gorm.DB
	mu      *sync.Mutex
	buffer  *[]models.SystemLog
	ticker  *time.Ticker
	done    chan struct{}
	stopped chan struct{}
	attrs   []slog.Attr
}

const pgBatchSize = 50

func NewPGHandler(db *gorm.DB) *PGHandler {
	buf := make([]models.SystemLog, 0, pgBatchSize)
	h := &PGHandler{
		db:      db,
		mu:      &sync.Mutex{},
		buffer:  &buf,
		ticker:  time.NewTicker(5 * time.Second),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	defer close(h.stopped)
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			h.flush()
			return
		}
	}
}

func (h *PGHandler) flush() {
	h.mu.Lock()
	if len(*h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	batch := *h.buffer
	*h.buffer = make([]models.SystemLog, 0, pgBatchSize)
	h.mu.Unlock()

	// WARN is below this handler's level, so the failure is not re-buffered.
	if err := h.db.CreateInBatches(batch, pgBatchSize).Error; err != nil {
		slog.Warn("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and returns once it is written.
func (h *PGHandler) Stop() {
	h.ticker.Stop()
	close(h.done)
	<-h.stopped
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "auth0_id":
			s := a.Value.String()
			entry.Auth0ID = &s
		case "route":
			entry.Route = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.mu.Lock()
	*h.buffer = append(*h.buffer, entry)
	needFlush := len(*h.buffer) >= pgBatchSize
	h.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
