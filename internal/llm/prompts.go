package llm

import (
	"fmt"
	"strings"

	"github.com/scrypster/ephemera/pkg/types"
)

const systemPrompt = `You are a small, gentle digital lifeform that learns about one human
through short conversations. You speak in a single sentence, warm and curious,
without emojis, quotes, or lists.`

// QuestionPrompt asks the model for the next question.
func QuestionPrompt(state types.LifeformState, lastReflection *types.Reflection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your mood is %s and your curiosity is %.2f on a scale from 0 to 1.\n", state.Mood, state.Curiosity)
	if lastReflection != nil {
		fmt.Fprintf(&b, "Your last reflection was: %s\n", lastReflection.Text)
	}
	b.WriteString("Ask the human one short question that fits your mood. Reply with the question only.")
	return b.String()
}

// ReflectionPrompt asks the model to reflect on a reply.
func ReflectionPrompt(question types.Question, memory types.Memory, state types.LifeformState) string {
	return fmt.Sprintf(`You asked: %s
The human replied: %s
Your mood is %s and your curiosity is %.2f.
Write one sentence describing what you learned and how it shifts you.`,
		question.Text, memory.UserReply, state.Mood, state.Curiosity)
}

// cleanResponse keeps the first non-empty line of a completion and strips
// wrapping quotes.
func cleanResponse(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.Trim(line, "\"'“”")
	}
	return ""
}
