package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T) (*Room, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	r := NewRoom(0, 0, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	return r, clock
}

func TestRoom_PostAndSweep(t *testing.T) {
	r, clock := newTestRoom(t)

	first, err := r.Post("hello, void")
	require.NoError(t, err)
	assert.Equal(t, DefaultMessageLifetime, first.Lifetime)

	clock.Advance(30 * time.Second)
	second, err := r.Post("still here")
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, first.ID, snap.Messages[0].ID, "messages are oldest first")

	clock.Advance(15 * time.Second)
	r.Sweep(clock.Now())
	snap = r.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, second.ID, snap.Messages[0].ID)
}

func TestRoom_PostValidation(t *testing.T) {
	r, _ := newTestRoom(t)

	_, err := r.Post(" \n\t")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msg, err := r.Post(strings.Repeat("é", MaxMessageRunes+20))
	require.NoError(t, err)
	assert.Equal(t, MaxMessageRunes, len([]rune(msg.Text)))
}

func TestRoom_Expiry(t *testing.T) {
	r, clock := newTestRoom(t)
	_, err := r.Post("last words")
	require.NoError(t, err)

	clock.Advance(DefaultRoomLifetime - time.Second)
	assert.Equal(t, time.Second, r.Remaining(clock.Now()))
	assert.Equal(t, "00:01", FormatRemaining(r.Remaining(clock.Now())))

	clock.Advance(time.Second)
	_, err = r.Post("too late")
	assert.ErrorIs(t, err, ErrRoomExpired)

	r.Sweep(clock.Now())
	snap := r.Snapshot()
	assert.True(t, snap.Expired)
	assert.Empty(t, snap.Messages)
	assert.Zero(t, r.Remaining(clock.Now().Add(time.Hour)))
}

func TestMessageOpacity(t *testing.T) {
	msg := Message{CreatedAt: origin, Lifetime: 40 * time.Second}

	assert.Equal(t, 1.0, MessageOpacity(msg, origin))
	assert.InDelta(t, 0.75, MessageOpacity(msg, origin.Add(10*time.Second)), 1e-9)
	assert.Zero(t, MessageOpacity(msg, origin.Add(time.Minute)))
	assert.Equal(t, 1.0, MessageOpacity(msg, origin.Add(-time.Second)))
}

func TestRoom_StartSweeps(t *testing.T) {
	clock := newFakeClock()
	r := NewRoom(time.Minute, 10*time.Second, WithClock(clock.Now))
	_, err := r.Post("fleeting")
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	defer func() { require.NoError(t, r.Stop()) }()

	clock.Advance(11 * time.Second)
	assert.Eventually(t, func() bool {
		return len(r.Snapshot().Messages) == 0
	}, time.Second, 10*time.Millisecond)
}
