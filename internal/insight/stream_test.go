package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_KnownValues(t *testing.T) {
	cases := []struct {
		seed string
		want uint32
	}{
		{"", 1779033703},
		{"abc", 50696745},
		{"🌙", 2422895282}, // surrogate pair, two code units
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Hash(tc.seed), "Hash(%q)", tc.seed)
	}
}

func TestStream_MatchesBrowserSequence(t *testing.T) {
	s := NewStream("abc")
	assert.InDelta(t, 0.41744336066767573, s.Float64(), 1e-15)
	assert.InDelta(t, 0.7136264541186392, s.Float64(), 1e-15)
	assert.InDelta(t, 0.5439423930365592, s.Float64(), 1e-15)

	assert.InDelta(t, 0.038885081419721246, NewStream("").Float64(), 1e-15)
	assert.InDelta(t, 0.10975923459045589, NewStream("🌙").Float64(), 1e-15)
}

func TestStream_Range(t *testing.T) {
	s := NewStreamFromHash(0)
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestStream_IndependentInstances(t *testing.T) {
	a := NewStream("seed")
	b := NewStream("seed")
	a.Float64()
	a.Float64()

	// b must not observe a's draws
	fresh := NewStream("seed")
	assert.Equal(t, fresh.Float64(), b.Float64())
}

type fixedSource []float64

func (f *fixedSource) Float64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestPick_IndexesByFloor(t *testing.T) {
	options := []string{"a", "b", "c", "d"}

	src := fixedSource{0, 0.2499, 0.25, 0.9999}
	assert.Equal(t, "a", Pick(&src, options))
	assert.Equal(t, "a", Pick(&src, options))
	assert.Equal(t, "b", Pick(&src, options))
	assert.Equal(t, "d", Pick(&src, options))
}

func TestPick_EmptyConsumesDraw(t *testing.T) {
	src := fixedSource{0.5, 0.1}
	assert.Equal(t, "", Pick(&src, []string{}))
	assert.Len(t, src, 1, "empty pick still consumes one draw")
}
