package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/ephemera/pkg/types"
)

func TestPairNarrative_ReferenceText(t *testing.T) {
	a := types.Thread{ID: "a"}
	b := types.Thread{ID: "b"}

	assert.Equal(t,
		"When their cadences overlap: record a 20-second audio spell to replay later Document the blend as a glyph in your notes.",
		PairNarrative(a, b))
	assert.Equal(t,
		"Invite a rendezvous between them: host a 90-second retrospective after the fact Send proof to a friend who will keep you honest.",
		PairNarrative(b, a), "order of the pair matters")
}

func TestEnergyNarrative(t *testing.T) {
	cases := []struct {
		energy float64
		state  types.ThreadState
		want   string
	}{
		{100, types.StateArchived, "Archived — resonance logged."},
		{0, types.StateReflection, "Phase shift pending your decision."},
		{67, types.StateLooming, "Looming brightly."},
		{66, types.StateLooming, "Vibrating steadily."},
		{34, types.StateLooming, "Vibrating steadily."},
		{33, types.StateLooming, "Signal flickering."},
		{11, types.StateLooming, "Signal flickering."},
		{10, types.StateLooming, "Almost ready to resolve."},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, EnergyNarrative(tc.energy, tc.state), "energy=%v state=%s", tc.energy, tc.state)
	}
}

func TestFormatHorizon(t *testing.T) {
	cases := map[int]string{
		1:  "4 hours",
		3:  "12 hours",
		4:  "4 days",
		7:  "7 days",
		8:  "1 week",
		11: "2 weeks",
		14: "2 weeks",
	}
	for days, want := range cases {
		assert.Equal(t, want, FormatHorizon(days), "days=%d", days)
	}
}
