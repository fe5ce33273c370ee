package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler wraps an slog.Handler with a buffered channel and worker pool.
// Records are dropped, and counted, when the buffer is full.
type AsyncHandler struct {
	inner   slog.Handler
	ch      chan asyncRecord
	wg      *sync.WaitGroup
	dropped *atomic.Int64
	once    *sync.Once
}

// asyncRecord keeps the request ID so it survives the hop to the worker.
type asyncRecord struct {
	rec       slog.Record
	requestID string
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	h := &AsyncHandler{
		inner:   inner,
		ch:      make(chan asyncRecord, chanSize),
		wg:      &sync.WaitGroup{},
		dropped: &atomic.Int64{},
		once:    &sync.Once{},
	}
	for range workers {
		h.wg.Add(1)
		go h.drain()
	}
	return h
}

func (h *AsyncHandler) drain() {
	defer h.wg.Done()
	for r := range h.ch {
		ctx := context.Background()
		if r.requestID != "" {
			ctx = WithRequestID(ctx, r.requestID)
		}
		_ = h.inner.Handle(ctx, r.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the channel is full.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.ch <- asyncRecord{rec: rec.Clone(), requestID: RequestID(ctx)}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a new AsyncHandler sharing the same channel but wrapping a new inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithAttrs(attrs),
		ch:      h.ch,
		wg:      h.wg,
		dropped: h.dropped,
		once:    h.once,
	}
}

// WithGroup returns a new AsyncHandler sharing the same channel but wrapping a new inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithGroup(name),
		ch:      h.ch,
		wg:      h.wg,
		dropped: h.dropped,
		once:    h.once,
	}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close closes the channel and waits for all workers to drain.
// Calling it more than once is safe.
func (h *AsyncHandler) Close() {
	h.once.Do(func() {
		close(h.ch)
		h.wg.Wait()
	})
}
