package engine

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arena/internal/config"
)

// TestEventLogWritesJSONL verifies events land on disk one per line
func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	cfg := config.DefaultEventLog()
	cfg.Path = path
	cfg.FlushInterval = 10 * time.Millisecond

	el := NewEventLog(cfg)
	if err := el.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	el.EmitSimple(EventTypeRoomCreated, 1, "room1", nil)
	el.EmitSimple(EventTypeJoin, 1, "room1", SessionPayload{SessionID: "p1", DisplayName: "ada"})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Name != "room_created" || events[1].Name != "join" {
		t.Errorf("Unexpected event names: %s, %s", events[0].Name, events[1].Name)
	}
	if events[0].Sequence >= events[1].Sequence {
		t.Error("Sequence numbers must increase")
	}

	var p SessionPayload
	if err := json.Unmarshal(events[1].Payload, &p); err != nil || p.DisplayName != "ada" {
		t.Errorf("Payload not preserved: %+v (%v)", p, err)
	}

	stats := el.Stats()
	if stats.Total != 2 || stats.Written != 2 || stats.Running {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// TestEventLogRoomRateLimit verifies one room cannot flood the log
func TestEventLogRoomRateLimit(t *testing.T) {
	cfg := config.DefaultEventLog()
	cfg.MaxEventsPerRoom = 10 // burst of 1

	el := NewEventLog(cfg)
	if err := el.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer el.Stop()

	accepted := 0
	for i := 0; i < 5; i++ {
		if el.EmitSimple(EventTypeKill, 1, "busy", nil) {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("Expected 1 event through the room burst, got %d", accepted)
	}
	if !el.EmitSimple(EventTypeKill, 1, "quiet", nil) {
		t.Error("Another room should have its own budget")
	}
	if el.Stats().Dropped != 4 {
		t.Errorf("Expected 4 dropped, got %d", el.Stats().Dropped)
	}
}

// TestEventLogNotRunning verifies Emit refuses events before Start
func TestEventLogNotRunning(t *testing.T) {
	el := NewEventLog(config.DefaultEventLog())
	if el.Emit(NewEvent(EventTypeJoin, 0, "room1", nil)) {
		t.Error("Emit before Start should fail")
	}
	el.Stop()
}

// TestCleanupRoomLimiters verifies idle limiters are dropped
func TestCleanupRoomLimiters(t *testing.T) {
	el := NewEventLog(config.DefaultEventLog())
	el.roomLimiter("old")
	el.cleanupRoomLimiters(time.Now().Add(time.Minute))
	if _, ok := el.roomLimiters.Load("old"); ok {
		t.Error("Idle limiter should be removed")
	}
}
