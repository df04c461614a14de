// Package llm turns the lifeform's state into questions and reflections.
//
// A Thinker either fills fixed templates (StubThinker) or asks an OpenAI
// chat model (OpenAIThinker). The OpenAI thinker sits behind a circuit
// breaker and falls back to the templates on any failure, so the lifeform
// keeps talking when the model is unreachable.
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scrypster/ephemera/pkg/types"
)

// Thinker produces the lifeform's words.
type Thinker interface {
	// ProposeQuestion drafts the next question. lastReflection may be nil.
	ProposeQuestion(ctx context.Context, state types.LifeformState, lastReflection *types.Reflection) (string, error)

	// GenerateReflection reacts to the memory that answered question. state
	// is the lifeform state before the memory is absorbed.
	GenerateReflection(ctx context.Context, question types.Question, memory types.Memory, state types.LifeformState) (string, error)
}

var questionTemplates = []string{
	"What is a small curiosity you could explore to honor your %[1]s mood?",
	"In what way does your present energy of %[1]s want to interact with the world?",
	"Describe a moment today that nudged your curiosity level of %.2[2]f.",
	"What would help you feel slightly more %[1]s right now?",
	"If you could bottle this %[1]s vibe, what label would you give it?",
}

var reflectionTemplates = []string{
	"Noted the reply about '%[1]s' and tuned curiosity to %.2[2]f.",
	"The response '%[1]s' suggests a shift toward a %[3]s horizon.",
	"Assimilated '%[1]s' and adjusted emotional hue to %[3]s.",
}

// summaryRunes bounds the reply excerpt quoted in a reflection.
const summaryRunes = 60

// StubThinker fills fixed templates. It is deterministic and never fails.
type StubThinker struct{}

var _ Thinker = StubThinker{}

// ProposeQuestion picks a template by the hundredths digit of curiosity.
func (StubThinker) ProposeQuestion(_ context.Context, state types.LifeformState, _ *types.Reflection) (string, error) {
	return StubQuestion(state), nil
}

// GenerateReflection picks a template by reply length and question ID.
func (StubThinker) GenerateReflection(_ context.Context, question types.Question, memory types.Memory, state types.LifeformState) (string, error) {
	return StubReflection(question, memory, state), nil
}

// StubQuestion is the template question for state.
func StubQuestion(state types.LifeformState) string {
	index := int(state.Curiosity*100) % len(questionTemplates)
	return fmt.Sprintf(questionTemplates[index], state.Mood, state.Curiosity)
}

// StubReflection is the template reflection for a memory.
func StubReflection(question types.Question, memory types.Memory, state types.LifeformState) string {
	n := int64(utf8.RuneCountInString(memory.UserReply)) + question.ID
	index := int(n % int64(len(reflectionTemplates)))
	if index < 0 {
		index += len(reflectionTemplates)
	}
	return fmt.Sprintf(reflectionTemplates[index], Summarize(memory.UserReply), state.Curiosity, state.Mood)
}

// Summarize returns the first line of the trimmed reply, cut to 60 runes.
func Summarize(reply string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(reply), "\n")
	if utf8.RuneCountInString(first) <= summaryRunes {
		return first
	}
	return string([]rune(first)[:summaryRunes])
}
