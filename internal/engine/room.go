package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scrypster/ephemera/internal/scheduler"
)

const (
	// DefaultRoomLifetime is how long a room accepts messages.
	DefaultRoomLifetime = 5 * time.Minute

	// DefaultMessageLifetime is how long one message stays visible.
	DefaultMessageLifetime = 45 * time.Second

	// MaxMessageRunes bounds the length of a message; longer text is cut.
	MaxMessageRunes = 200

	// RoomSweepInterval is how often a started Room drops expired messages.
	RoomSweepInterval = 100 * time.Millisecond
)

var (
	// ErrEmptyMessage is returned by Post for blank text.
	ErrEmptyMessage = errors.New("engine: message is empty")

	// ErrRoomExpired is returned by Post once the room's time is up.
	ErrRoomExpired = errors.New("engine: room has expired")
)

// Message is one transient line in a Room.
type Message struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Lifetime  time.Duration `json:"lifetime"`
}

// RoomSnapshot is an immutable view of a room. Messages are oldest first.
type RoomSnapshot struct {
	Messages []Message `json:"messages"`
	Expired  bool      `json:"expired"`
}

// Room is a temporary chat room. The room itself expires after its lifetime,
// taking every message with it, and each message fades out on its own
// shorter lifetime before that.
type Room struct {
	opts            options
	opened          time.Time
	lifetime        time.Duration
	messageLifetime time.Duration

	mu      sync.Mutex
	current atomic.Pointer[RoomSnapshot]
	task    *scheduler.Task
}

// NewRoom opens a room now. Non-positive lifetimes select the defaults.
func NewRoom(lifetime, messageLifetime time.Duration, opts ...Option) *Room {
	if lifetime <= 0 {
		lifetime = DefaultRoomLifetime
	}
	if messageLifetime <= 0 {
		messageLifetime = DefaultMessageLifetime
	}
	r := &Room{
		opts:            buildOptions(opts),
		lifetime:        lifetime,
		messageLifetime: messageLifetime,
	}
	r.opened = r.opts.now()
	r.current.Store(&RoomSnapshot{})
	r.task, _ = scheduler.New("room.sweep", RoomSweepInterval, func(context.Context) {
		r.Sweep(r.opts.now())
	}, scheduler.WithLogger(r.opts.logger))
	return r
}

// Start sweeps the room every RoomSweepInterval until Stop or ctx ends.
func (r *Room) Start(ctx context.Context) error {
	if err := r.task.Start(ctx); err != nil {
		return fmt.Errorf("engine: start room: %w", err)
	}
	return nil
}

// Stop halts sweeping.
func (r *Room) Stop() error {
	if err := r.task.Stop(); err != nil {
		return fmt.Errorf("engine: stop room: %w", err)
	}
	return nil
}

// Post appends a message. Text longer than MaxMessageRunes is cut.
func (r *Room) Post(text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	if runes := []rune(text); len(runes) > MaxMessageRunes {
		text = string(runes[:MaxMessageRunes])
	}

	now := r.opts.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.current.Load()
	if prev.Expired || !now.Before(r.opened.Add(r.lifetime)) {
		return Message{}, ErrRoomExpired
	}

	msg := Message{
		ID:        r.opts.newID(),
		Text:      text,
		CreatedAt: now,
		Lifetime:  r.messageLifetime,
	}
	messages := append(slices.Clone(prev.Messages), msg)
	r.current.Store(&RoomSnapshot{Messages: messages})
	return msg, nil
}

// Sweep drops messages whose lifetime has elapsed at now. Once the room
// lifetime is over every message is dropped and the room is marked expired.
func (r *Room) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.current.Load()
	if prev.Expired {
		return
	}

	if r.Remaining(now) == 0 {
		r.current.Store(&RoomSnapshot{Expired: true})
		r.opts.logger.Debug("room.expired", "opened", r.opened)
		return
	}

	kept := slices.DeleteFunc(slices.Clone(prev.Messages), func(m Message) bool {
		return now.Sub(m.CreatedAt) >= m.Lifetime
	})
	if len(kept) == len(prev.Messages) {
		return
	}
	r.current.Store(&RoomSnapshot{Messages: kept})
}

// Snapshot returns the room's current messages and expiry flag.
func (r *Room) Snapshot() RoomSnapshot {
	s := r.current.Load()
	return RoomSnapshot{Messages: slices.Clone(s.Messages), Expired: s.Expired}
}

// Remaining returns the room's time left at now, never negative.
func (r *Room) Remaining(now time.Time) time.Duration {
	left := r.opened.Add(r.lifetime).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// MessageOpacity fades a message linearly from 1 to 0 over its lifetime.
func MessageOpacity(msg Message, now time.Time) float64 {
	if msg.Lifetime <= 0 {
		return 0
	}
	progress := float64(now.Sub(msg.CreatedAt)) / float64(msg.Lifetime)
	return math.Min(1, math.Max(0, 1-progress))
}
