// Package engine drives the rooms: it owns the registry, applies queued
// client commands, steps every room on a fixed schedule and broadcasts
// per-viewer state.
package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"arena/internal/config"
	"arena/internal/game"
	"arena/internal/metrics"
	"arena/internal/protocol"
)

// Engine is the single driver of all room state. Transport goroutines talk
// to it only through the command methods and Snapshot.
type Engine struct {
	cfg    config.SimulationConfig
	limits config.LimitsConfig
	reg    *Registry
	events *EventLog // may be nil

	inbox    chan command
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool

	nextSession atomic.Uint64
	sessions    atomic.Int64

	tick     uint64 // engine goroutine only
	snapshot atomic.Pointer[Snapshot]
}

// New creates an engine over reg. events may be nil.
func New(reg *Registry, sim config.SimulationConfig, limits config.LimitsConfig, events *EventLog) *Engine {
	def := config.DefaultSimulation()
	if sim.TickRate <= 0 {
		sim.TickRate = def.TickRate
	}
	if sim.BroadcastEvery <= 0 {
		sim.BroadcastEvery = def.BroadcastEvery
	}
	if sim.PollInterval <= 0 {
		sim.PollInterval = def.PollInterval
	}
	if limits.InboxSize <= 0 {
		limits.InboxSize = config.DefaultLimits().InboxSize
	}

	e := &Engine{
		cfg:      sim,
		limits:   limits,
		reg:      reg,
		events:   events,
		inbox:    make(chan command, limits.InboxSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	e.snapshot.Store(&Snapshot{Time: time.Now()})
	return e
}

// Registry returns the engine's registry. It must only be read from the
// engine goroutine or before Start.
func (e *Engine) Registry() *Registry { return e.reg }

// TickInterval is the fixed simulation period.
func (e *Engine) TickInterval() time.Duration {
	return time.Second / time.Duration(e.cfg.TickRate)
}

// Start begins the scheduler loop.
func (e *Engine) Start() {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	go e.run()
	log.Printf("🎮 Engine started at %d TPS (broadcast every %d ticks)", e.cfg.TickRate, e.cfg.BroadcastEvery)
}

// Stop ends the scheduler loop and waits for the current tick to finish.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
		if e.running.Load() {
			<-e.done
		}
		log.Println("🛑 Engine stopped")
	})
}

// run wakes every PollInterval and steps once the tick interval has
// passed, using the real elapsed time. At most one step per wake-up.
func (e *Engine) run() {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	interval := e.TickInterval()
	last := time.Now()

	for {
		select {
		case <-e.stopChan:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			if elapsed < interval {
				continue
			}
			last = now
			e.Step(elapsed.Seconds())
		}
	}
}

// Step runs one engine tick: apply commands, update rooms, then on every
// BroadcastEvery-th tick send state and publish a snapshot. It is called
// by the scheduler; tests call it directly on a stopped engine.
func (e *Engine) Step(dt float64) {
	start := time.Now()
	e.drain()

	rooms := e.reg.Rooms()
	reports := make([]game.TickReport, len(rooms))
	if e.cfg.ParallelRooms && len(rooms) > 1 {
		var wg sync.WaitGroup
		for i, r := range rooms {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reports[i] = r.Update(dt)
			}()
		}
		wg.Wait()
	} else {
		for i, r := range rooms {
			reports[i] = r.Update(dt)
		}
	}

	e.tick++
	for i, r := range rooms {
		e.handleReport(r, reports[i])
		metrics.SetEntities(r.ID(), r.Len())
	}

	if e.tick%uint64(e.cfg.BroadcastEvery) == 0 {
		for _, r := range rooms {
			r.RefreshLeaderboard()
			e.broadcast(r)
		}
		e.publish(rooms)
	}

	metrics.RecordTick(time.Since(start))
}

// Tick returns the number of completed engine ticks.
func (e *Engine) Tick() uint64 { return e.tick }

func (e *Engine) handleReport(r *game.Room, rep game.TickReport) {
	metrics.AddCollisions(rep.Collisions)
	for _, k := range rep.Kills {
		metrics.RecordKill(k.VictimKind.String())
		if k.VictimKind == game.KindPlayer {
			log.Printf("💀 %s was killed in %s", k.VictimName, r.ID())
		}
		e.emit(EventTypeKill, r.ID(), KillPayload{
			VictimID:   k.VictimID,
			VictimKind: k.VictimKind.String(),
			VictimName: k.VictimName,
			KillerID:   k.KillerID,
			AwardeeID:  k.AwardeeID,
			Score:      k.Score,
		})
	}
	for _, lu := range rep.LevelUps {
		e.emit(EventTypeLevelUp, r.ID(), LevelUpPayload{
			SessionID: lu.SessionID,
			PlayerID:  lu.EntityID,
			Level:     lu.Level,
		})
	}
}

// broadcast sends each member its own view of the room.
func (e *Engine) broadcast(r *game.Room) {
	for _, id := range e.reg.Members(r.ID()) {
		s, ok := e.reg.Session(id)
		if !ok {
			continue
		}
		updates := r.StateFor(id)
		if updates == nil {
			updates = []game.EntityUpdate{}
		}
		e.send(s, protocol.MsgStateUpdate, protocol.StateUpdate{
			Entities: updates,
			RoomSize: r.Size(),
		})
	}
}

// send encodes and hands a frame to the session's sink.
func (e *Engine) send(s *Session, msgType string, payload any) {
	if s.sink == nil {
		return
	}
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("⚠️ Encode %s failed: %v", msgType, err)
		return
	}
	if !s.sink.Send(frame) {
		metrics.RecordDropped("outbox_full")
		return
	}
	metrics.AddBroadcastBytes(len(frame))
}

func (e *Engine) joinRoom(s *Session, roomID, name string) error {
	if !e.reg.Allowed(roomID) {
		return ErrUnknownRoom
	}
	name = e.reg.cleanName(name)
	if s.RoomID != "" && s.RoomID != roomID {
		e.leaveRoom(s, true)
	}

	r, created := e.reg.openRoom(roomID)
	if created {
		log.Printf("🏟️ Room %s created", roomID)
		metrics.SetRooms(len(e.reg.rooms))
		e.emit(EventTypeRoomCreated, roomID, nil)
	}

	p := r.Join(s.ID, name)
	if s.RoomID != roomID {
		e.reg.enter(s, roomID)
	}
	s.DisplayName = name

	log.Printf("👤 %s joined %s as %s", s.ID, roomID, p.ID)
	e.emit(EventTypeJoin, roomID, SessionPayload{SessionID: s.ID, DisplayName: name, PlayerID: p.ID})
	e.send(s, protocol.MsgRoomJoined, protocol.RoomJoined{
		RoomID:      roomID,
		DisplayName: name,
		PlayerID:    p.ID,
	})
	return nil
}

// leaveRoom takes a session out of its room, tearing the room down if it
// was the last member. In-flight entities of a torn-down room are dropped.
func (e *Engine) leaveRoom(s *Session, notify bool) {
	roomID := s.RoomID
	_, destroyed := e.reg.exit(s)

	log.Printf("👋 %s left %s", s.ID, roomID)
	e.emit(EventTypeLeave, roomID, SessionPayload{SessionID: s.ID, DisplayName: s.DisplayName})

	if destroyed {
		log.Printf("🧹 Room %s closed", roomID)
		metrics.ForgetRoom(roomID)
		metrics.SetRooms(len(e.reg.rooms))
		e.emit(EventTypeRoomDestroyed, roomID, nil)
	}
	if notify {
		e.send(s, protocol.MsgRoomLeft, protocol.RoomLeft{})
	}
}

func (e *Engine) emit(t EventType, roomID string, payload any) {
	if e.events == nil {
		return
	}
	e.events.EmitSimple(t, e.tick, roomID, payload)
}
