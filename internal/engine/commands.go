package engine

import (
	"errors"
	"fmt"

	"arena/internal/game"
	"arena/internal/metrics"
)

var (
	// ErrUnknownRoom is returned for room ids outside the allow-list.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrSessionNotFound is returned for commands naming a stale session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInboxFull means the engine is behind and the command was dropped.
	ErrInboxFull = errors.New("engine inbox full")
	// ErrTooManySessions is returned by Connect once MaxSessions is reached.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrStopped is returned after the engine has shut down.
	ErrStopped = errors.New("engine stopped")
)

type commandKind uint8

const (
	cmdConnect commandKind = iota
	cmdDisconnect
	cmdJoinRoom
	cmdInput
	cmdUpgradeSkill
	cmdResize
)

// command is a request from a transport goroutine. Only the engine
// goroutine applies commands, so rooms never see concurrent access.
type command struct {
	kind    commandKind
	session string
	sink    Sink
	roomID  string
	name    string
	input   game.InputPatch
	skill   string
	width   float64
	height  float64
}

// Connect registers a new session and returns its id.
func (e *Engine) Connect(sink Sink) (string, error) {
	if n := e.sessions.Add(1); e.limits.MaxSessions > 0 && n > int64(e.limits.MaxSessions) {
		e.sessions.Add(-1)
		return "", ErrTooManySessions
	}
	id := fmt.Sprintf("p%d", e.nextSession.Add(1))
	if err := e.submit(command{kind: cmdConnect, session: id, sink: sink}); err != nil {
		e.sessions.Add(-1)
		return "", err
	}
	return id, nil
}

// Disconnect removes a session and its player. It waits for inbox space
// rather than dropping, since a lost disconnect would leak the session.
func (e *Engine) Disconnect(sessionID string) error {
	select {
	case e.inbox <- command{kind: cmdDisconnect, session: sessionID}:
		return nil
	case <-e.stopChan:
		return ErrStopped
	}
}

// JoinRoom puts a session in a room, leaving any other room first.
func (e *Engine) JoinRoom(sessionID, roomID, displayName string) error {
	if !e.reg.Allowed(roomID) {
		return ErrUnknownRoom
	}
	return e.submit(command{kind: cmdJoinRoom, session: sessionID, roomID: roomID, name: displayName})
}

// Input queues a sparse intent for a session's player. Empty patches
// change nothing and are not queued.
func (e *Engine) Input(sessionID string, patch game.InputPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	return e.submit(command{kind: cmdInput, session: sessionID, input: patch})
}

// UpgradeSkill queues a skill upgrade.
func (e *Engine) UpgradeSkill(sessionID, skill string) error {
	return e.submit(command{kind: cmdUpgradeSkill, session: sessionID, skill: skill})
}

// Resize queues a viewport canvas change.
func (e *Engine) Resize(sessionID string, width, height float64) error {
	return e.submit(command{kind: cmdResize, session: sessionID, width: width, height: height})
}

func (e *Engine) submit(cmd command) error {
	select {
	case <-e.stopChan:
		return ErrStopped
	default:
	}
	select {
	case e.inbox <- cmd:
		return nil
	default:
		metrics.RecordDropped("inbox_full")
		return ErrInboxFull
	}
}

// drain applies every queued command. It stops after one inbox worth so a
// flood cannot stall the tick.
func (e *Engine) drain() {
	for range cap(e.inbox) {
		select {
		case cmd := <-e.inbox:
			if err := e.apply(cmd); err != nil {
				metrics.RecordDropped(dropReason(err))
			}
		default:
			return
		}
	}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "stale_session"
	case errors.Is(err, ErrUnknownRoom):
		return "unknown_room"
	default:
		return "invalid"
	}
}

func (e *Engine) apply(cmd command) error {
	if cmd.kind == cmdConnect {
		e.reg.addSession(cmd.session, cmd.sink)
		metrics.SetSessions(e.reg.SessionCount())
		return nil
	}

	s, ok := e.reg.Session(cmd.session)
	if !ok {
		return ErrSessionNotFound
	}

	switch cmd.kind {
	case cmdDisconnect:
		if s.RoomID != "" {
			e.leaveRoom(s, false)
		}
		e.reg.removeSession(s.ID)
		e.sessions.Add(-1)
		metrics.SetSessions(e.reg.SessionCount())
		return nil

	case cmdJoinRoom:
		return e.joinRoom(s, cmd.roomID, cmd.name)

	case cmdInput:
		if r, ok := e.reg.Room(s.RoomID); ok {
			r.ApplyInput(s.ID, cmd.input)
		}
		return nil

	case cmdUpgradeSkill:
		skill, ok := game.ParseSkill(cmd.skill)
		if !ok {
			return fmt.Errorf("skill %q: %w", cmd.skill, errInvalidCommand)
		}
		if r, ok := e.reg.Room(s.RoomID); ok {
			r.UpgradeSkill(s.ID, skill)
		}
		return nil

	case cmdResize:
		if r, ok := e.reg.Room(s.RoomID); ok {
			r.Resize(s.ID, cmd.width, cmd.height)
		}
		return nil
	}
	return errInvalidCommand
}

var errInvalidCommand = errors.New("invalid command")
