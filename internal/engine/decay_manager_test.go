package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/ephemera/pkg/types"
)

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func TestThreadLifespan(t *testing.T) {
	assert.Equal(t, 54*time.Second, ThreadLifespan(5, constSource(0)))
	assert.Equal(t, 60*time.Second, ThreadLifespan(5, constSource(0.5)))
	assert.Equal(t, 24*time.Second+11999*time.Millisecond, ThreadLifespan(0, constSource(0.99999)))
}

func loomingThread(lifespan time.Duration) types.Thread {
	return types.Thread{
		ID:        "t1",
		CreatedAt: origin,
		Lifespan:  lifespan,
		Energy:    FullEnergy,
		State:     types.StateLooming,
	}
}

func TestDecayThread_LinearEnergy(t *testing.T) {
	th := loomingThread(40 * time.Second)

	got := DecayThread(th, origin.Add(10*time.Second))
	assert.InDelta(t, 75.0, got.Energy, 1e-9)
	assert.Equal(t, types.StateLooming, got.State)
	assert.Equal(t, FullEnergy, th.Energy, "input must not be modified")
}

func TestDecayThread_MovesToReflection(t *testing.T) {
	th := loomingThread(40 * time.Second)

	got := DecayThread(th, origin.Add(40*time.Second))
	assert.Zero(t, got.Energy)
	assert.Equal(t, types.StateReflection, got.State)

	// Reflection threads no longer decay.
	again := DecayThread(got, origin.Add(time.Hour))
	assert.Equal(t, got, again)
}

func TestDecayThread_IgnoresNonLooming(t *testing.T) {
	th := loomingThread(time.Second)
	th.State = types.StateArchived
	th.Energy = ReleasedEnergy

	assert.Equal(t, th, DecayThread(th, origin.Add(time.Hour)))
}

func TestDecayThread_ClockSkew(t *testing.T) {
	th := loomingThread(10 * time.Second)
	got := DecayThread(th, origin.Add(-time.Second))
	assert.Equal(t, FullEnergy, got.Energy)
}

func TestResolveThread(t *testing.T) {
	th := loomingThread(time.Minute)
	th.Energy = 12

	weaved := ResolveThread(th, types.ResolutionWeaved)
	assert.Equal(t, types.StateArchived, weaved.State)
	assert.Equal(t, FullEnergy, weaved.Energy)
	assert.Equal(t, types.ResolutionWeaved, weaved.Resolution)

	released := ResolveThread(th, types.ResolutionReleased)
	assert.Equal(t, ReleasedEnergy, released.Energy)
	assert.Equal(t, types.ResolutionReleased, released.Resolution)
}
