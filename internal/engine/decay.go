// Package engine drives the time-based side of ephemera: decay progress and
// its visual parameters, thread energy, balance scoring, and the two
// in-memory collections that tick on a schedule (the Loom and the Room).
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/pkg/types"
)

const (
	// MaxPixelBlockSize is the pixel block edge at full decay.
	MaxPixelBlockSize = 24

	// MaxBlurRadius is the blur radius in pixels at full decay.
	MaxBlurRadius = 12.0

	// MaxFragmentDrift is the longest distance in pixels a fragment word can
	// travel at full decay.
	MaxFragmentDrift = 60.0

	// fragmentFadeRate makes fragment words vanish slightly before the
	// decay completes.
	fragmentFadeRate = 1.2
)

// Progress returns how far a decay has advanced at now, clamped to [0,1].
// A descriptor with a non-positive duration is always fully decayed.
func Progress(d types.DecayDescriptor, now time.Time) float64 {
	if d.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(d.Origin)) / float64(d.Duration)
	return clamp01(p)
}

// Remaining returns the time left before the decay completes, never negative.
func Remaining(d types.DecayDescriptor, now time.Time) time.Duration {
	left := d.Origin.Add(d.Duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// FormatRemaining renders a duration as zero-padded MM:SS using whole
// seconds. Negative durations render as 00:00; minutes may exceed 99.
func FormatRemaining(left time.Duration) string {
	if left < 0 {
		left = 0
	}
	secs := int64(left / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// CharacterOpacities returns one opacity per rune of text for the fade mode.
// Later characters fade faster: the last character is gone at progress 0.5
// while the first lasts until progress 1.
func CharacterOpacities(text string, progress float64) []float64 {
	n := utf8.RuneCountInString(text)
	out := make([]float64, n)
	for i := range out {
		weight := 1.0
		if n > 1 {
			weight = 1 + float64(i)/float64(n-1)
		}
		out[i] = math.Max(0, 1-progress*weight)
	}
	return out
}

// PixelBlockSize returns the block edge for the pixelate mode. It is 1 at
// progress 0 and grows quadratically to MaxPixelBlockSize.
func PixelBlockSize(progress float64) int {
	p := clamp01(progress)
	return 1 + int(math.Floor(p*p*float64(MaxPixelBlockSize-1)))
}

// BlurRadius returns the blur radius for the blur mode.
func BlurRadius(progress float64) float64 {
	return clamp01(progress) * MaxBlurRadius
}

// FragmentSeed derives the per-word seed for the fragment mode from the word
// and its position in the text.
func FragmentSeed(word string, index int) uint32 {
	return insight.Hash(word + strconv.Itoa(index))
}

// FragmentDisplacement returns the offset of a fragment word. Direction and
// reach come from the seed; the distance scales linearly with progress, so
// a word is never displaced at progress 0.
func FragmentDisplacement(progress float64, seed uint32) types.Vector {
	rand := insight.NewStreamFromHash(seed)
	angle := rand.Float64() * 2 * math.Pi
	reach := (0.4 + 0.6*rand.Float64()) * MaxFragmentDrift * clamp01(progress)
	return types.Vector{X: math.Cos(angle) * reach, Y: math.Sin(angle) * reach}
}

// WordOpacity is the opacity of every fragment word at progress.
func WordOpacity(progress float64) float64 {
	return math.Max(0, 1-fragmentFadeRate*progress)
}

// Fragment is one word of text in the fragment mode.
type Fragment struct {
	Word    string       `json:"word"`
	Offset  types.Vector `json:"offset"`
	Opacity float64      `json:"opacity"`
}

// DecayFrame is everything a renderer needs to draw decaying text at one
// instant. Only the fields of the descriptor's mode are populated. BlockSize
// and Blur are pointers so a zero blur still encodes in blur mode.
type DecayFrame struct {
	Mode      types.DecayMode `json:"mode"`
	Progress  float64         `json:"progress"`
	Remaining time.Duration   `json:"remaining"`
	Label     string          `json:"label"`

	Opacities []float64  `json:"opacities,omitempty"`
	BlockSize *int       `json:"block_size,omitempty"`
	Blur      *float64   `json:"blur,omitempty"`
	Fragments []Fragment `json:"fragments,omitempty"`
}

// Frame computes the decay frame for text at now. An unknown mode yields a
// frame with only progress and remaining time.
func Frame(d types.DecayDescriptor, text string, now time.Time) DecayFrame {
	p := Progress(d, now)
	left := Remaining(d, now)
	frame := DecayFrame{
		Mode:      d.Mode,
		Progress:  p,
		Remaining: left,
		Label:     FormatRemaining(left),
	}

	switch d.Mode {
	case types.DecayFade:
		frame.Opacities = CharacterOpacities(text, p)
	case types.DecayPixelate:
		size := PixelBlockSize(p)
		frame.BlockSize = &size
	case types.DecayBlur:
		radius := BlurRadius(p)
		frame.Blur = &radius
	case types.DecayFragment:
		words := strings.Fields(text)
		frame.Fragments = make([]Fragment, len(words))
		opacity := WordOpacity(p)
		for i, w := range words {
			frame.Fragments[i] = Fragment{
				Word:    w,
				Offset:  FragmentDisplacement(p, FragmentSeed(w, i)),
				Opacity: opacity,
			}
		}
	}
	return frame
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
