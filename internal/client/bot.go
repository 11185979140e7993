package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"arena/internal/game"
	"arena/internal/game/geom"
	"arena/internal/protocol"
)

const (
	// MaxReconnects before a bot gives up
	MaxReconnects = 10

	// ReconnectBaseDelay for exponential backoff
	ReconnectBaseDelay = 2 * time.Second

	// maxReconnectDelay caps the backoff
	maxReconnectDelay = 30 * time.Second

	chaseDistance = 250.0
)

// BotConfig configures one headless player.
type BotConfig struct {
	URL         string // ws:// or wss:// endpoint of /ws
	Origin      string // optional Origin header
	RoomID      string
	DisplayName string

	StepInterval  time.Duration // local prediction step
	InputInterval time.Duration // how often intent is re-decided
	ViewWidth     float64
	ViewHeight    float64

	ReconnectBaseDelay time.Duration
	MaxReconnects      int
	Seed               int64
}

// DefaultBotConfig returns a bot that joins roomID as name.
func DefaultBotConfig(url, roomID, name string) BotConfig {
	return BotConfig{
		URL:                url,
		RoomID:             roomID,
		DisplayName:        name,
		StepInterval:       time.Second / 30,
		InputInterval:      250 * time.Millisecond,
		ViewWidth:          1920,
		ViewHeight:         1080,
		ReconnectBaseDelay: ReconnectBaseDelay,
		MaxReconnects:      MaxReconnects,
		Seed:               time.Now().UnixNano(),
	}
}

// Bot joins a room over the websocket protocol and plays it: it chases the
// nearest shape, aims at it and keeps firing, spending skill points as it
// levels. Its view of the world is a predictive Mirror.
type Bot struct {
	cfg    BotConfig
	mirror *Mirror
	rng    *rand.Rand

	spent   int     // skill points requested so far
	strafe  float64 // strafe direction angle
	sent    atomic.Int64
	joins   atomic.Int64
	running atomic.Bool
}

// NewBot creates a bot. Zero intervals fall back to the defaults.
func NewBot(cfg BotConfig) *Bot {
	def := DefaultBotConfig(cfg.URL, cfg.RoomID, cfg.DisplayName)
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = def.StepInterval
	}
	if cfg.InputInterval <= 0 {
		cfg.InputInterval = def.InputInterval
	}
	if cfg.ViewWidth <= 0 || cfg.ViewHeight <= 0 {
		cfg.ViewWidth, cfg.ViewHeight = def.ViewWidth, def.ViewHeight
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = def.MaxReconnects
	}
	return &Bot{
		cfg:    cfg,
		mirror: NewMirror(),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Mirror exposes the bot's view of its room.
func (b *Bot) Mirror() *Mirror { return b.mirror }

// Sent returns the number of messages written.
func (b *Bot) Sent() int64 { return b.sent.Load() }

// Joins returns the number of join requests sent.
func (b *Bot) Joins() int64 { return b.joins.Load() }

// Running reports whether the bot currently holds a connection.
func (b *Bot) Running() bool { return b.running.Load() }

// Run plays until ctx is done, reconnecting with exponential backoff when
// the connection drops. It returns nil on cancellation and an error once
// MaxReconnects consecutive attempts have failed.
func (b *Bot) Run(ctx context.Context) error {
	attempt := 0
	for {
		err := b.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil || errors.Is(err, errPlayed) {
			attempt = 0
		}

		attempt++
		if attempt > b.cfg.MaxReconnects {
			log.Printf("❌ [%s] Max reconnect attempts reached (%d)", b.cfg.DisplayName, b.cfg.MaxReconnects)
			return fmt.Errorf("bot %s: %w", b.cfg.DisplayName, err)
		}

		delay := b.cfg.ReconnectBaseDelay * time.Duration(1<<uint(attempt-1))
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
		log.Printf("🔄 [%s] Reconnecting (attempt %d/%d) in %v: %v", b.cfg.DisplayName, attempt, b.cfg.MaxReconnects, delay, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// errPlayed wraps a read failure after the bot had joined, so the backoff
// restarts from the first attempt.
var errPlayed = errors.New("connection lost")

// session runs one connection from dial to disconnect.
func (b *Bot) session(ctx context.Context) error {
	var header http.Header
	if b.cfg.Origin != "" {
		header = http.Header{"Origin": []string{b.cfg.Origin}}
	}

	log.Printf("🔌 [%s] Connecting to %s...", b.cfg.DisplayName, b.cfg.URL)
	conn, err := Dial(ctx, b.cfg.URL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := b.join(conn); err != nil {
		return err
	}
	if err := b.send(conn, protocol.MsgResizeViewport, protocol.ResizeViewport{
		Width:  b.cfg.ViewWidth,
		Height: b.cfg.ViewHeight,
	}); err != nil {
		return err
	}
	log.Printf("✅ [%s] Connected, joining %s", b.cfg.DisplayName, b.cfg.RoomID)

	b.running.Store(true)
	defer b.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readErr := make(chan error, 1)
	go func() {
		readErr <- conn.Run(ctx, func(env protocol.Envelope) {
			if err := b.mirror.Apply(env); err != nil {
				log.Printf("⚠️ [%s] Bad %s: %v", b.cfg.DisplayName, env.T, err)
			}
		})
	}()

	step := time.NewTicker(b.cfg.StepInterval)
	defer step.Stop()
	decide := time.NewTicker(b.cfg.InputInterval)
	defer decide.Stop()
	last := time.Now()

	for {
		select {
		case err := <-readErr:
			return fmt.Errorf("%w: %v", errPlayed, err)
		case <-ctx.Done():
			return nil
		case now := <-step.C:
			b.mirror.Step(now.Sub(last).Seconds())
			last = now
		case <-decide.C:
			if err := b.act(conn); err != nil {
				return fmt.Errorf("%w: %v", errPlayed, err)
			}
		}
	}
}

func (b *Bot) join(conn *Conn) error {
	b.spent = 0
	b.joins.Add(1)
	return b.send(conn, protocol.MsgRequestJoinRoom, protocol.RequestJoinRoom{
		RoomID:      b.cfg.RoomID,
		DisplayName: b.cfg.DisplayName,
	})
}

func (b *Bot) send(conn *Conn, msgType string, payload any) error {
	if err := conn.Send(msgType, payload); err != nil {
		return err
	}
	b.sent.Add(1)
	return nil
}

// plan is one decision taken from the mirror.
type plan struct {
	rejoin   bool
	input    protocol.UpdateInput
	upgrades int
}

// act decides and sends the next intent.
func (b *Bot) act(conn *Conn) error {
	p, ok := b.decide()
	if !ok {
		return nil
	}
	if p.rejoin {
		return b.join(conn)
	}
	if err := b.send(conn, protocol.MsgUpdateInput, p.input); err != nil {
		return err
	}

	skills := game.AllSkills()
	for range p.upgrades {
		skill := skills[b.rng.Intn(len(skills))]
		if err := b.send(conn, protocol.MsgUpgradeSkill, protocol.UpgradeSkill{Skill: skill.String()}); err != nil {
			return err
		}
		b.spent++
	}
	return nil
}

// decide reads the mirror. ok is false until the bot's player is visible.
func (b *Bot) decide() (p plan, ok bool) {
	b.mirror.View(func(room *game.Room, player *game.Entity) {
		if room == nil || player == nil {
			return
		}
		ok = true
		if player.DeadFlag {
			p.rejoin = true
			return
		}

		target := room.Nearest(player.Position, func(e *game.Entity) bool {
			return e.Kind == game.KindShape
		})

		var aim, move geom.Vec2
		if target != nil {
			aim = target.Position
			toward := target.Position.Sub(player.Position)
			if toward.Len() > chaseDistance {
				move = toward.Normalize()
			} else {
				move = b.strafeDir()
			}
		} else {
			move = b.strafeDir()
			aim = player.Position.Add(move.Scale(100))
		}

		fire := true
		p.input = protocol.UpdateInput{
			MoveX:       &move.X,
			MoveY:       &move.Y,
			MouseWorldX: &aim.X,
			MouseWorldY: &aim.Y,
			PrimaryFire: &fire,
		}
		p.upgrades = max(game.SkillPointsFor(player.Level)-b.spent, 0)
	})
	return p, ok
}

// strafeDir drifts slowly so an idle bot wanders instead of standing still.
func (b *Bot) strafeDir() geom.Vec2 {
	b.strafe = geom.WrapAngle(b.strafe + (b.rng.Float64()-0.5)*math.Pi/2)
	return geom.FromAngle(b.strafe)
}
