package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/ephemera/pkg/types"
)

func TestSurprise_UsesGivenSource(t *testing.T) {
	src := fixedSource{0, 0.99, 0, 0.5, 0}
	draft := Surprise(&src)

	assert.Equal(t, types.EmotionWonder, draft.Emotion)
	assert.Equal(t, "Upon tasting the first sip of something warm", draft.Trigger)
	assert.Equal(t, 3, draft.Horizon)
	assert.Equal(t, "Turn restless energy into a healing ritual.", draft.Impact)
	assert.Equal(t, "Slipstream Tidal Lattice", draft.Title)
}

func TestSurprise_HorizonRange(t *testing.T) {
	src := AmbientSource()
	for i := 0; i < 500; i++ {
		d := Surprise(src)
		assert.GreaterOrEqual(t, d.Horizon, 3)
		assert.LessOrEqual(t, d.Horizon, 11)
		assert.True(t, IsKnownEmotion(d.Emotion))
	}
}
