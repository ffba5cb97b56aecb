package flowlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"ragcore/internal/pkg/logger"

	"go.uber.org/zap"
)

// Config configures a Writer. File rotation mirrors the original
// AsyncLogWriter's size-based rotation, adapted to lumberjack (the
// teacher's own rotation library, see internal/pkg/logger).
type Config struct {
	Filename    string
	DetailLevel DetailLevel
	QueueSize   int // bounded async queue capacity; 0 uses DefaultQueueSize
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Compress    bool
}

// DefaultQueueSize is the async writer's backpressure bound (§4.10: "an
// async queue with bounded backpressure protects the hot path").
const DefaultQueueSize = 1000

func DefaultConfig(filename string) Config {
	return Config{
		Filename:    filename,
		DetailLevel: DetailNormal,
		QueueSize:   DefaultQueueSize,
		MaxSizeMB:   10,
		MaxBackups:  5,
		MaxAgeDays:  30,
		Compress:    true,
	}
}

// Writer is C10's write side: a bounded async queue draining to an
// append-only JSON-lines file. A full queue drops the event rather than
// blocking the caller, writing a single LOG_OVERFLOW marker for the drop
// window rather than one per dropped event.
type Writer struct {
	out         io.Writer
	closer      io.Closer
	detailLevel DetailLevel
	log         *logger.Logger

	queue chan Event
	done  chan struct{}

	mu          sync.Mutex
	sessionStart map[string]time.Time

	dropped      int64
	overflowOpen int32 // 1 while a drop window is active and no marker has been flushed yet
}

func New(cfg Config, log *logger.Logger) (*Writer, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("flowlog: filename is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.DetailLevel == "" {
		cfg.DetailLevel = DetailNormal
	}
	if log == nil {
		log = logger.L()
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	w := &Writer{
		out:          lj,
		closer:       lj,
		detailLevel:  cfg.DetailLevel,
		log:          log,
		queue:        make(chan Event, cfg.QueueSize),
		done:         make(chan struct{}),
		sessionStart: make(map[string]time.Time),
	}
	go w.drain()
	return w, nil
}

// Record implements agent.FlowRecorder by structural typing: it is handed
// to the orchestrator via agent.WithFlowRecorder without either package
// importing the other's concrete type.
func (w *Writer) Record(ctx context.Context, sessionID string, eventType, status string, metadata map[string]interface{}) {
	w.emit(sessionID, EventType(eventType), Status(status), nil, metadata)
}

// StartSession resets the elapsed-time origin for sessionID, mirroring the
// original FlowLogger's per-instance _start_time reset in log_query_start
// — generalized to a map since one Writer here serves every session rather
// than being constructed fresh per query.
func (w *Writer) StartSession(sessionID string) {
	w.mu.Lock()
	w.sessionStart[sessionID] = time.Now()
	w.mu.Unlock()
}

// EndSession drops the tracked start time once a session's flow is done,
// so sessionStart does not grow unboundedly across a long-running process.
func (w *Writer) EndSession(sessionID string) {
	w.mu.Lock()
	delete(w.sessionStart, sessionID)
	w.mu.Unlock()
}

// RecordWithDuration is the richer entry point used directly by callers
// that measured an operation's wall-clock duration (tool execution, LLM
// calls), rather than going through the narrower FlowRecorder shape.
func (w *Writer) RecordWithDuration(sessionID string, eventType EventType, status Status, duration time.Duration, metadata map[string]interface{}) {
	d := duration.Seconds()
	w.emit(sessionID, eventType, status, &d, metadata)
}

func (w *Writer) emit(sessionID string, eventType EventType, status Status, duration *float64, metadata map[string]interface{}) {
	if eventType == EventQueryStart {
		w.StartSession(sessionID)
	}

	elapsed := w.elapsedSince(sessionID)
	event := Event{
		Timestamp:         time.Now(),
		SessionID:         sessionID,
		EventType:         eventType,
		ElapsedSinceStart: elapsed,
		DurationSeconds:   duration,
		Status:            status,
		Metadata:          truncate(metadata, w.detailLevel),
	}

	select {
	case w.queue <- event:
		// The queue has room again: close the drop window with its marker,
		// keeping the window open if the marker itself does not fit.
		if atomic.SwapInt32(&w.overflowOpen, 0) == 1 {
			select {
			case w.queue <- Event{Timestamp: time.Now(), SessionID: sessionID, EventType: EventLogOverflow, Status: StatusError}:
			default:
				atomic.CompareAndSwapInt32(&w.overflowOpen, 0, 1)
			}
		}
	default:
		atomic.AddInt64(&w.dropped, 1)
		if atomic.CompareAndSwapInt32(&w.overflowOpen, 0, 1) {
			w.log.Warn("flow log queue full, dropping events", zap.String("session_id", sessionID))
		}
	}

	if eventType == EventQueryComplete || (eventType == EventError && status == StatusError) {
		w.EndSession(sessionID)
	}
}

func (w *Writer) elapsedSince(sessionID string) float64 {
	w.mu.Lock()
	start, ok := w.sessionStart[sessionID]
	w.mu.Unlock()
	if !ok {
		return 0
	}
	return time.Since(start).Seconds()
}

func (w *Writer) drain() {
	enc := json.NewEncoder(w.out)
	for {
		select {
		case event := <-w.queue:
			if err := enc.Encode(event); err != nil {
				w.log.Warn("failed to write flow log entry", zap.Error(err))
			}
		case <-w.done:
			// Drain whatever is left before exiting, matching the original
			// flush()'s best-effort semantics on shutdown.
			for {
				select {
				case event := <-w.queue:
					_ = enc.Encode(event)
				default:
					return
				}
			}
		}
	}
}

// Close stops the drain goroutine after flushing the queue and closes the
// underlying file.
func (w *Writer) Close() error {
	close(w.done)
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// DroppedCount reports how many events have been dropped under
// backpressure over this Writer's lifetime, for diagnostics/tests.
func (w *Writer) DroppedCount() int64 {
	return atomic.LoadInt64(&w.dropped)
}

func truncate(metadata map[string]interface{}, level DetailLevel) map[string]interface{} {
	if metadata == nil || level == DetailVerbose {
		return metadata
	}
	if level == DetailMinimal {
		return nil
	}
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		if s, ok := v.(string); ok && len(s) > maxContentLength {
			out[k] = s[:maxContentLength] + "...(truncated)"
			continue
		}
		out[k] = v
	}
	return out
}
