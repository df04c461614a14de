package engine

import (
	"math"

	"github.com/scrypster/ephemera/pkg/types"
)

// Interpretations of a balance score, from most to least favourable.
const (
	InterpretationGrinning    = "Future-self is grinning ear to ear."
	InterpretationLuminous    = "Trajectory leaning toward luminous outcomes."
	InterpretationMakeRoom    = "Consider releasing something to make room."
	InterpretationBusy        = "Plenty of threads to keep your present busy."
	InterpretationCalibrating = "Temporal balance calibrating."
)

// busyThreshold is the number of active threads above which a neutral
// score reads as a busy present.
const busyThreshold = 4

// Balance is the ratio of fulfilled to released intentions plus a one-line
// reading of it.
type Balance struct {
	Score          float64 `json:"score"`
	Interpretation string  `json:"interpretation"`
}

// ScoreBalance computes the balance from raw counts. active counts looming
// threads.
func ScoreBalance(weaved, released, active int) Balance {
	ratio := float64(weaved+1) / float64(released+1)
	score := math.Floor(ratio*100+0.5) / 100

	var reading string
	switch {
	case score > 1.6:
		reading = InterpretationGrinning
	case score > 1.2:
		reading = InterpretationLuminous
	case score < 0.8:
		reading = InterpretationMakeRoom
	case active > busyThreshold:
		reading = InterpretationBusy
	default:
		reading = InterpretationCalibrating
	}
	return Balance{Score: score, Interpretation: reading}
}

// ComputeBalance scores a thread collection.
func ComputeBalance(threads []types.Thread) Balance {
	var weaved, released, active int
	for _, t := range threads {
		switch t.Resolution {
		case types.ResolutionWeaved:
			weaved++
		case types.ResolutionReleased:
			released++
		}
		if t.State == types.StateLooming {
			active++
		}
	}
	return ScoreBalance(weaved, released, active)
}
