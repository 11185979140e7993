package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"arena/internal/config"
	"arena/internal/metrics"
)

const (
	eventBufferSize = 1024 // pending events before Emit starts dropping
	batchFlushSize  = 64   // events per batch write
)

// EventLog provides bounded, rate-limited event logging with backpressure.
// Emit never blocks the simulation: events over the rate limits or beyond
// the buffer are counted and dropped.
type EventLog struct {
	cfg    config.EventLogConfig
	events chan Event

	// Rate limiting so one busy room cannot flood the log
	globalLimiter *rate.Limiter
	roomLimiters  sync.Map // map[string]*roomLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file   *os.File
	writer *bufio.Writer

	sequence     atomic.Uint64
	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
	writtenCount atomic.Uint64
}

// roomLimiterEntry tracks per-room rate limiting
type roomLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates a new bounded event log.
func NewEventLog(cfg config.EventLogConfig) *EventLog {
	if cfg.MaxEventsPerSec <= 0 {
		cfg.MaxEventsPerSec = config.DefaultEventLog().MaxEventsPerSec
	}
	if cfg.MaxEventsPerRoom <= 0 {
		cfg.MaxEventsPerRoom = config.DefaultEventLog().MaxEventsPerRoom
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = config.DefaultEventLog().FlushInterval
	}
	if cfg.RoomLimiterCleanup <= 0 {
		cfg.RoomLimiterCleanup = config.DefaultEventLog().RoomLimiterCleanup
	}
	return &EventLog{
		cfg:           cfg,
		events:        make(chan Event, eventBufferSize),
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.MaxEventsPerSec), burstFor(cfg.MaxEventsPerSec)),
		stopChan:      make(chan struct{}),
	}
}

func burstFor(perSec float64) int {
	if b := int(perSec / 10); b > 1 {
		return b
	}
	return 1
}

// Start opens the log file (if a path is configured) and begins the async
// writer. Without a path events are still counted but not persisted.
func (el *EventLog) Start() error {
	if el.running.Load() {
		return nil
	}

	if el.cfg.Path != "" {
		file, err := os.OpenFile(el.cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		el.file = file
		el.writer = bufio.NewWriter(file)
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	return nil
}

// Stop flushes pending events and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		if el.file != nil {
			if err := el.file.Close(); err != nil {
				log.Printf("⚠️ Event log close failed: %v", err)
			}
		}
	})
}

// Emit queues an event. It returns false if the event was rate limited,
// the buffer was full or the log is not running.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.drop()
		return false
	}
	if event.RoomID != "" && !el.roomLimiter(event.RoomID).Allow() {
		el.drop()
		return false
	}

	event.Sequence = el.sequence.Add(1)
	select {
	case el.events <- event:
		el.totalCount.Add(1)
		metrics.RecordEvent(true)
		return true
	default:
		el.drop()
		return false
	}
}

// EmitSimple builds and emits an event in one call.
func (el *EventLog) EmitSimple(eventType EventType, tick uint64, roomID string, payload any) bool {
	return el.Emit(NewEvent(eventType, tick, roomID, payload))
}

func (el *EventLog) drop() {
	el.droppedCount.Add(1)
	metrics.RecordEvent(false)
}

// roomLimiter returns/creates a per-room rate limiter
func (el *EventLog) roomLimiter(roomID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.roomLimiters.Load(roomID); ok {
		entry := v.(*roomLimiterEntry)
		entry.lastUsed.Store(now)
		return entry.limiter
	}

	entry := &roomLimiterEntry{
		limiter: rate.NewLimiter(rate.Limit(el.cfg.MaxEventsPerRoom), burstFor(el.cfg.MaxEventsPerRoom)),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.roomLimiters.LoadOrStore(roomID, entry)
	return actual.(*roomLimiterEntry).limiter
}

// writerLoop batches and writes events to disk asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(el.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, batchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Final flush
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// collectBatch drains up to batchFlushSize queued events.
func (el *EventLog) collectBatch(batch []Event) []Event {
	for len(batch) < batchFlushSize {
		select {
		case ev := <-el.events:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

// flushBatch writes events as newline-delimited JSON.
func (el *EventLog) flushBatch(batch []Event) {
	if el.writer == nil {
		el.writtenCount.Add(uint64(len(batch)))
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.writer.Write(data)
		el.writer.WriteByte('\n')
	}
	if err := el.writer.Flush(); err != nil {
		log.Printf("⚠️ Event log write failed: %v", err)
		return
	}
	el.writtenCount.Add(uint64(len(batch)))
}

// cleanupLoop removes stale room limiters to prevent memory leak
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(el.cfg.RoomLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupRoomLimiters(time.Now().Add(-el.cfg.RoomLimiterCleanup))
		}
	}
}

func (el *EventLog) cleanupRoomLimiters(cutoff time.Time) {
	el.roomLimiters.Range(func(key, value any) bool {
		if value.(*roomLimiterEntry).lastUsed.Load() < cutoff.UnixNano() {
			el.roomLimiters.Delete(key)
		}
		return true
	})
}

// EventLogStats is a point-in-time view of the log counters.
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Written uint64 `json:"written"`
	Pending int    `json:"pending"`
	Running bool   `json:"running"`
}

// Stats returns metrics for DoS monitoring
func (el *EventLog) Stats() EventLogStats {
	return EventLogStats{
		Total:   el.totalCount.Load(),
		Dropped: el.droppedCount.Load(),
		Written: el.writtenCount.Load(),
		Pending: len(el.events),
		Running: el.running.Load(),
	}
}
