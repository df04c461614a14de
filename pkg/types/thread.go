// Package types defines the records shared across the ephemera packages:
// threads and their generated insights, decay descriptors, and the lifeform
// state served over HTTP.
package types

import "time"

// Emotion names the emotional fuel of a thread. Each emotion selects a fixed
// palette, glyph and tagline from the insight catalog.
type Emotion string

const (
	EmotionWonder    Emotion = "Wonder"
	EmotionDefiance  Emotion = "Defiance"
	EmotionGrace     Emotion = "Grace"
	EmotionCuriosity Emotion = "Curiosity"
	EmotionResolve   Emotion = "Resolve"
	EmotionReverie   Emotion = "Reverie"
	EmotionVelocity  Emotion = "Velocity"
)

// Resolution records how an archived thread ended.
type Resolution string

const (
	ResolutionWeaved   Resolution = "weaved"   // lived it
	ResolutionReleased Resolution = "released" // let go with gratitude
)

// Vector is a 2D point or displacement.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pattern is the visual descriptor of a thread: three palette colors plus
// one procedurally generated color, and the emotion glyph.
type Pattern struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
	Glyph  string   `json:"glyph"`
}

// Insights is the bundle of flavor text and visual parameters generated for a
// thread. It is immutable once produced.
type Insights struct {
	FutureEcho  string  `json:"future_echo"`
	MicroRitual string  `json:"micro_ritual"`
	Signal      string  `json:"signal"`
	Anchor      string  `json:"anchor"`
	Mantra      string  `json:"mantra"`
	Pattern     Pattern `json:"pattern"`
	Vector      Vector  `json:"vector"` // both components in [0,1)
}

// Thread is one intention woven into the loom. Threads decay from full
// energy to zero over their lifespan and then wait for a resolution.
type Thread struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Horizon    int           `json:"horizon"` // playful days
	Emotion    Emotion       `json:"emotion"`
	Impact     string        `json:"impact"`
	Trigger    string        `json:"trigger"`
	CreatedAt  time.Time     `json:"created_at"`
	Lifespan   time.Duration `json:"lifespan"`
	Energy     float64       `json:"energy"` // 0..100
	State      ThreadState   `json:"state"`
	Resolution Resolution    `json:"resolution,omitempty"`
	Insights   Insights      `json:"insights"`
}

// DecayMode selects the visual transform driven by decay progress.
type DecayMode string

const (
	DecayFade     DecayMode = "fade"
	DecayPixelate DecayMode = "pixelate"
	DecayBlur     DecayMode = "blur"
	DecayFragment DecayMode = "fragment"
)

// ValidDecayModes lists every supported decay mode.
var ValidDecayModes = []DecayMode{DecayFade, DecayPixelate, DecayBlur, DecayFragment}

// IsValidDecayMode reports whether mode is one of ValidDecayModes.
func IsValidDecayMode(mode DecayMode) bool {
	for _, m := range ValidDecayModes {
		if m == mode {
			return true
		}
	}
	return false
}

// DecayDescriptor defines one timed decay process.
type DecayDescriptor struct {
	Origin   time.Time     `json:"origin"`
	Duration time.Duration `json:"duration"`
	Mode     DecayMode     `json:"mode"`
}
