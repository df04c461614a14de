package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/ephemera/pkg/types"
)

func threadsWith(weaved, released, looming int) []types.Thread {
	var out []types.Thread
	for i := 0; i < weaved; i++ {
		out = append(out, types.Thread{State: types.StateArchived, Resolution: types.ResolutionWeaved})
	}
	for i := 0; i < released; i++ {
		out = append(out, types.Thread{State: types.StateArchived, Resolution: types.ResolutionReleased})
	}
	for i := 0; i < looming; i++ {
		out = append(out, types.Thread{State: types.StateLooming})
	}
	return out
}

func TestComputeBalance_Empty(t *testing.T) {
	b := ComputeBalance(nil)
	assert.Equal(t, 1.0, b.Score)
	assert.Equal(t, InterpretationCalibrating, b.Interpretation)
}

func TestComputeBalance_Bands(t *testing.T) {
	tests := []struct {
		name                      string
		weaved, released, looming int
		score                     float64
		reading                   string
	}{
		{"two fulfilled", 2, 0, 0, 3.00, InterpretationGrinning},
		{"luminous", 3, 2, 0, 1.33, InterpretationLuminous},
		{"boundary 1.6 is not grinning", 7, 4, 0, 1.6, InterpretationLuminous},
		{"boundary 1.2 is not luminous", 5, 4, 0, 1.2, InterpretationCalibrating},
		{"released heavy", 0, 2, 0, 0.33, InterpretationMakeRoom},
		{"busy", 1, 1, 5, 1.0, InterpretationBusy},
		{"four active is calm", 1, 1, 4, 1.0, InterpretationCalibrating},
		{"rounds half up", 0, 7, 0, 0.13, InterpretationMakeRoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeBalance(threadsWith(tt.weaved, tt.released, tt.looming))
			assert.InDelta(t, tt.score, b.Score, 1e-9)
			assert.Equal(t, tt.reading, b.Interpretation)
		})
	}
}

func TestComputeBalance_ReflectionIsNotActive(t *testing.T) {
	threads := make([]types.Thread, 6)
	for i := range threads {
		threads[i].State = types.StateReflection
	}
	assert.Equal(t, InterpretationCalibrating, ComputeBalance(threads).Interpretation)
}

func TestScoreBalance_MatchesCollection(t *testing.T) {
	assert.Equal(t, ComputeBalance(threadsWith(3, 1, 2)), ScoreBalance(3, 1, 2))
}
