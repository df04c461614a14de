package insight

import "github.com/scrypster/ephemera/pkg/types"

// Profile is the fixed presentation of one emotion.
type Profile struct {
	Emotion types.Emotion
	Glyph   string
	Tagline string
	Colors  [3]string
	Aura    string
}

// Profiles lists every emotion in display order.
var Profiles = []Profile{
	{
		Emotion: types.EmotionWonder,
		Glyph:   "✶",
		Tagline: "invite improbable allies",
		Colors:  [3]string{"#8FF0FF", "#FFB3FF", "#FFF2A8"},
		Aura:    "A luminous hush spreads from patient curiosity.",
	},
	{
		Emotion: types.EmotionDefiance,
		Glyph:   "⚡",
		Tagline: "re-code the expected",
		Colors:  [3]string{"#9EE37D", "#FF8FA3", "#FFE9B1"},
		Aura:    "Raw momentum converts friction into possibility.",
	},
	{
		Emotion: types.EmotionGrace,
		Glyph:   "☽",
		Tagline: "glide through thresholds",
		Colors:  [3]string{"#C7D3FF", "#A98BFF", "#FFD5EC"},
		Aura:    "Soft recalibrations ripple outward silently.",
	},
	{
		Emotion: types.EmotionCuriosity,
		Glyph:   "❂",
		Tagline: "follow glints of pattern",
		Colors:  [3]string{"#98F5FF", "#FFC6FF", "#FAFFAF"},
		Aura:    "Questions resonate like tuning forks.",
	},
	{
		Emotion: types.EmotionResolve,
		Glyph:   "✹",
		Tagline: "anchor the improbable",
		Colors:  [3]string{"#FEB47B", "#FF6F91", "#FFD480"},
		Aura:    "Focused heat forges through doubt.",
	},
	{
		Emotion: types.EmotionReverie,
		Glyph:   "☄",
		Tagline: "let awe do the heavy lifting",
		Colors:  [3]string{"#B4C5FF", "#EFB0FF", "#FFE0B5"},
		Aura:    "Dream logic seeps into waking plans.",
	},
	{
		Emotion: types.EmotionVelocity,
		Glyph:   "➿",
		Tagline: "surf the emergent",
		Colors:  [3]string{"#A0FFAF", "#7DE9FF", "#FFE585"},
		Aura:    "Acceleration becomes choreography.",
	},
}

// ProfileFor returns the profile of emotion. Unknown emotions get the
// Curiosity profile.
func ProfileFor(emotion types.Emotion) Profile {
	for _, p := range Profiles {
		if p.Emotion == emotion {
			return p
		}
	}
	return Profiles[3]
}

// IsKnownEmotion reports whether emotion has a profile.
func IsKnownEmotion(emotion types.Emotion) bool {
	for _, p := range Profiles {
		if p.Emotion == emotion {
			return true
		}
	}
	return false
}

// Triggers are the selectable trigger conditions.
var Triggers = []string{
	"When the sky shifts color",
	"At the first ping from your inbox",
	"Whenever a stranger's laugh catches you",
	"After you close your laptop for the night",
	"As the kettle begins to whisper",
	"When your playlist surprises you",
	"Just after you dodge a notification",
	"As soon as you feel hesitation",
	"When the streetlights wake up",
	"Upon tasting the first sip of something warm",
}

var echoOpeners = []string{
	"In an alternate timeline,",
	"Future you murmurs that",
	"A ripple from next week insists",
	"A pocket universe is preparing",
	"Chronicles from tomorrow reveal",
	"An emergent ally signals",
	"The probability weaver hints",
	"A parallel morning makes clear",
}

var echoConnectors = []string{
	"the smallest courage",
	"an impossible kindness",
	"a reframed question",
	"an unguarded laugh",
	"the decision hiding in your posture",
	"the promise you whispered",
	"the wobble before delight",
	"a yes disguised as static",
}

var ritualActions = []string{
	"let your shoulders drop and inhale on a count of five",
	"draw the sigil in your palm with your thumb",
	"name one person who could help amplify it",
	"speak the intention into the nearest reflective surface",
	"tune your breath to the hum of passing electricity",
	"press your fingertips together and feel the warmth consolidate",
	"sketch the outline of the idea in the air",
	"send a seven-word note describing the spark to a friend",
}

var signalPhrases = []string{
	"a chromatic echo",
	"a fleeting scent of petrichor",
	"a chord progression that stutters",
	"the second star from the left",
	"a notification that feels like déjà vu",
	"the exact angle of sunlight that once found you",
	"a lyric that was not in the song yesterday",
	"an unfamiliar bird call",
}

var anchorObjects = []string{
	"a sticky note folded into a mini prism",
	"an origami star smuggled into your pocket",
	"the corner of your favorite page",
	"a rogue paperclip bent into a helix",
	"the next receipt you would usually toss",
	"a piece of packaging that deserves better",
	"a pebble that fits behind your ear",
	"the inside cover of your notebook",
}

// PatternDescriptors name the visual patterns.
var PatternDescriptors = []string{
	"Tidal Lattice",
	"Signal Bloom",
	"Gravity Sketch",
	"Reverb Spiral",
	"Aurora Circuit",
	"Echo Loom",
	"Nebula Kinship",
	"Sovereign Drift",
}

var reciprocityPreambles = []string{
	"If these two threads met at twilight",
	"Imagine braiding their pulses",
	"Let their frequencies harmonize",
	"Suppose they co-design a gesture",
	"Invite a rendezvous between them",
	"When their cadences overlap",
}

var reciprocityDirectives = []string{
	"script a single sentence they would co-sign",
	"design a mnemonic artifact that references both",
	"schedule a micro-adventure that satisfies each",
	"record a 20-second audio spell to replay later",
	"trade artifacts between their future holders",
	"host a 90-second retrospective after the fact",
}

var reciprocityCatalysts = []string{
	"Share the resulting evidence with someone unexpected.",
	"Document the blend as a glyph in your notes.",
	"Let the experiment evaporate after you whisper it once.",
	"Archive the memory as coordinates on a map you draw.",
	"Offer gratitude to whichever thread follows through first.",
	"Send proof to a friend who will keep you honest.",
}

// SampleIntentions seed surprise drafts.
var SampleIntentions = []string{
	"Prototype the boldest idea in my backlog.",
	"Transform my commute into a creative lab.",
	"Turn restless energy into a healing ritual.",
	"Invite unlikely collaborators to orbit this idea.",
	"Upgrade my Tuesday mornings into something cinematic.",
}
