package engine

import (
	"math"
	"time"

	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/pkg/types"
)

const (
	// lifespanPerHorizonStep is the lifespan granted per horizon day, offset
	// by lifespanHorizonOffset so even a zero-day horizon gets some time.
	lifespanPerHorizonStep = 6 * time.Second
	lifespanHorizonOffset  = 4

	// lifespanJitter is the upper bound of the random extra lifespan.
	lifespanJitter = 12 * time.Second

	// FullEnergy is the energy of a freshly woven or fulfilled thread.
	FullEnergy = 100.0

	// ReleasedEnergy is the residual energy of a released thread.
	ReleasedEnergy = 5.0
)

// ThreadLifespan returns how long a thread with the given horizon stays
// looming: six seconds per horizon day plus offset, plus up to twelve
// seconds of jitter drawn from src.
func ThreadLifespan(horizon int, src insight.RandomSource) time.Duration {
	base := time.Duration(horizon+lifespanHorizonOffset) * lifespanPerHorizonStep
	jitter := time.Duration(math.Floor(src.Float64() * float64(lifespanJitter/time.Millisecond)))
	return base + jitter*time.Millisecond
}

// DecayThread returns t with energy recomputed for now. Only looming threads
// decay; once the lifespan is spent the thread drops to zero energy and moves
// to reflection. The input is never modified.
func DecayThread(t types.Thread, now time.Time) types.Thread {
	if t.State != types.StateLooming {
		return t
	}

	fraction := 1.0
	if t.Lifespan > 0 {
		fraction = math.Min(1, float64(now.Sub(t.CreatedAt))/float64(t.Lifespan))
	}
	if fraction < 0 {
		fraction = 0
	}

	if fraction >= 1 {
		t.Energy = 0
		t.State = types.StateReflection
		return t
	}
	t.Energy = math.Max(0, FullEnergy-fraction*FullEnergy)
	return t
}

// ResolveThread archives t with the given resolution. Fulfilled threads are
// recharged to full energy while released ones keep a faint residue.
func ResolveThread(t types.Thread, resolution types.Resolution) types.Thread {
	t.State = types.StateArchived
	t.Resolution = resolution
	if resolution == types.ResolutionWeaved {
		t.Energy = FullEnergy
	} else {
		t.Energy = ReleasedEnergy
	}
	return t
}
