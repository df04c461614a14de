package insight

import (
	"math/rand/v2"

	"github.com/scrypster/ephemera/pkg/types"
)

// RandomSource supplies non-reproducible randomness to user-initiated
// actions such as Surprise and thread lifespans. Deterministic code paths
// take a Stream instead.
type RandomSource interface {
	Float64() float64
}

type ambientSource struct{}

func (ambientSource) Float64() float64 { return rand.Float64() }

// AmbientSource returns a RandomSource backed by the process-wide generator.
func AmbientSource() RandomSource { return ambientSource{} }

// Draft is the user-entered part of a thread before it is woven.
type Draft struct {
	Title   string        `json:"title"`
	Horizon int           `json:"horizon"`
	Emotion types.Emotion `json:"emotion"`
	Impact  string        `json:"impact"`
	Trigger string        `json:"trigger"`
}

// Surprise fills a draft with a random emotion, trigger, horizon between 3
// and 11, a sample intention and a "Slipstream" title.
func Surprise(src RandomSource) Draft {
	profile := Pick(src, Profiles)
	trigger := Pick(src, Triggers)
	horizon := 3 + int(src.Float64()*9)
	impact := Pick(src, SampleIntentions)
	title := "Slipstream " + Pick(src, PatternDescriptors)
	return Draft{
		Title:   title,
		Horizon: horizon,
		Emotion: profile.Emotion,
		Impact:  impact,
		Trigger: trigger,
	}
}
