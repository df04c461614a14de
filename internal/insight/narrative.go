package insight

import (
	"fmt"
	"math"

	"github.com/scrypster/ephemera/pkg/types"
)

// PairNarrative drafts a reciprocity experiment for two threads. The result
// depends only on the two IDs and their order.
func PairNarrative(first, second types.Thread) string {
	rand := NewStream(first.ID + "-" + second.ID)
	preamble := Pick(rand, reciprocityPreambles)
	directive := Pick(rand, reciprocityDirectives)
	catalyst := Pick(rand, reciprocityCatalysts)
	return fmt.Sprintf("%s: %s %s", preamble, directive, catalyst)
}

// EnergyNarrative describes a thread's energy for display.
func EnergyNarrative(energy float64, state types.ThreadState) string {
	switch {
	case state == types.StateArchived:
		return "Archived — resonance logged."
	case state == types.StateReflection:
		return "Phase shift pending your decision."
	case energy > 66:
		return "Looming brightly."
	case energy > 33:
		return "Vibrating steadily."
	case energy > 10:
		return "Signal flickering."
	default:
		return "Almost ready to resolve."
	}
}

// FormatHorizon renders a horizon in playful days. Short horizons are
// accelerated into hours.
func FormatHorizon(days int) string {
	if days <= 3 {
		return fmt.Sprintf("%d hours", days*4)
	}
	if days <= 7 {
		return fmt.Sprintf("%d day%s", days, plural(days))
	}
	weeks := int(math.Max(1, math.Round(float64(days)/7)))
	return fmt.Sprintf("%d week%s", weeks, plural(weeks))
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
