package insight

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scrypster/ephemera/pkg/types"
)

// defaultKeyword stands in when neither impact nor title has a usable word.
const defaultKeyword = "your intention"

// ThreadSeed is the identity and user-entered fields of a thread. Every
// field takes part in the seed, so editing any of them changes the output.
type ThreadSeed struct {
	ID      string
	Title   string
	Emotion types.Emotion
	Horizon int
	Trigger string
	Impact  string
}

// SeedOf extracts the ThreadSeed of an existing thread.
func SeedOf(t types.Thread) ThreadSeed {
	return ThreadSeed{
		ID:      t.ID,
		Title:   t.Title,
		Emotion: t.Emotion,
		Horizon: t.Horizon,
		Trigger: t.Trigger,
		Impact:  t.Impact,
	}
}

// Seed joins the fields with "-" in the order id, title, emotion, horizon,
// trigger, impact.
func (s ThreadSeed) Seed() string {
	return strings.Join([]string{
		s.ID,
		s.Title,
		string(s.Emotion),
		strconv.Itoa(s.Horizon),
		s.Trigger,
		s.Impact,
	}, "-")
}

// Keyword is the word the insight text is built around: taken from the
// impact, or from the title when the impact is empty.
func (s ThreadSeed) Keyword() string {
	source := s.Impact
	if source == "" {
		source = s.Title
	}
	return ExtractKeyword(source, defaultKeyword)
}

// Generate produces the insight bundle for s.
//
// Draws are consumed in this order: opener, connector, ritual action,
// signal phrase, anchor object, pattern descriptor, extra hue, extra
// lightness, vector x, vector y.
func Generate(s ThreadSeed) types.Insights {
	profile := ProfileFor(s.Emotion)

	keyword := s.Keyword()

	rand := NewStream(s.Seed())

	opener := Pick(rand, echoOpeners)
	connector := Pick(rand, echoConnectors)
	futureEcho := fmt.Sprintf("%s %s becomes inevitable when %s is honored.", opener, connector, keyword)

	microRitual := fmt.Sprintf("Each time %s, %s. Then whisper \"%s\" once.",
		strings.ToLower(s.Trigger), Pick(rand, ritualActions), s.Title)

	signal := fmt.Sprintf("Listen for %s — that's the confirmation ping.", Pick(rand, signalPhrases))

	anchor := fmt.Sprintf("Tuck %s nearby as a temporary anchor.", Pick(rand, anchorObjects))

	patternName := profile.Glyph + " " + Pick(rand, PatternDescriptors)
	hue := rand.Intn(360)
	lightness := 60 + rand.Intn(20)
	extraColor := fmt.Sprintf("hsla(%d, 92%%, %d%%, 0.85)", hue, lightness)

	shout := keyword
	if !strings.Contains(keyword, " ") {
		shout = strings.ToUpper(keyword)
	}
	mantra := fmt.Sprintf("%s %s — %s pulses %d steps ahead.",
		profile.Glyph, strings.ToUpper(profile.Tagline), shout, s.Horizon)

	colors := make([]string, 0, len(profile.Colors)+1)
	colors = append(colors, profile.Colors[:]...)
	colors = append(colors, extraColor)

	x := rand.Float64()
	y := rand.Float64()

	return types.Insights{
		FutureEcho:  futureEcho,
		MicroRitual: microRitual,
		Signal:      signal,
		Anchor:      anchor,
		Mantra:      mantra,
		Pattern: types.Pattern{
			Name:   patternName,
			Colors: colors,
			Glyph:  profile.Glyph,
		},
		Vector: types.Vector{X: x, Y: y},
	}
}
