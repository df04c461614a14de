// Package insight generates reproducible flavor text for threads.
//
// Every generation call derives a Stream from a seed string and consumes
// draws from it in a fixed order, so the same seed always yields the same
// Insights. Streams are never shared between calls.
package insight

import (
	"math/bits"
	"unicode/utf16"
)

const (
	hashInit       = 1779033703
	hashMultiplier = 3432918353
	mixMultiplierA = 2246822507
	mixMultiplierB = 3266489909
	twoPow32       = 4294967296.0
)

// Hash folds seed into a 32-bit value. The seed is consumed as UTF-16 code
// units so that hashes match those computed by browser clients.
func Hash(seed string) uint32 {
	units := utf16.Encode([]rune(seed))
	h := uint32(hashInit) ^ uint32(len(units))
	for _, c := range units {
		h = (h ^ uint32(c)) * hashMultiplier
		h = bits.RotateLeft32(h, 13)
	}
	return h
}

// Stream is a deterministic sequence of floats in [0,1).
// It is not safe for concurrent use.
type Stream struct {
	state uint32
}

// NewStream returns a Stream seeded from Hash(seed).
func NewStream(seed string) *Stream {
	return &Stream{state: Hash(seed)}
}

// NewStreamFromHash returns a Stream seeded directly with h.
func NewStreamFromHash(h uint32) *Stream {
	return &Stream{state: h}
}

// Float64 advances the stream and returns the next draw.
func (s *Stream) Float64() float64 {
	h := s.state
	h = (h ^ (h >> 16)) * mixMultiplierA
	h = (h ^ (h >> 13)) * mixMultiplierB
	h ^= h >> 16
	s.state = h
	return float64(h) / twoPow32
}

// Intn returns floor(draw*n) for n > 0, consuming exactly one draw.
func (s *Stream) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// Float64Source is anything that produces floats in [0,1). Both Stream and
// ambient RandomSource implementations satisfy it.
type Float64Source interface {
	Float64() float64
}

// Pick consumes one draw from src and returns options[floor(draw*len)].
// An empty slice still consumes the draw and yields the zero value.
func Pick[T any](src Float64Source, options []T) T {
	draw := src.Float64()
	var zero T
	if len(options) == 0 {
		return zero
	}
	i := int(draw * float64(len(options)))
	if i >= len(options) {
		i = len(options) - 1
	}
	return options[i]
}
