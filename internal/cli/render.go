package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scrypster/ephemera/internal/engine"
	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/pkg/types"
)

const cardWidth = 64

var (
	mutedColor  = lipgloss.Color("#8A8FA3")
	accentColor = lipgloss.Color("#8FF0FF")

	labelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// cardStyle borders a card in the thread's first palette color.
func cardStyle(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(cardWidth)
}

func field(label, value string) string {
	return labelStyle.Render(label+" ") + value
}

// renderInsightCard draws a generated bundle for a thread seed.
func renderInsightCard(seed insight.ThreadSeed, in types.Insights) string {
	border := accentColor
	if len(in.Pattern.Colors) > 0 {
		border = lipgloss.Color(in.Pattern.Colors[0])
	}

	lines := []string{
		titleStyle.Render(in.Pattern.Glyph + " " + seed.Title),
		field("emotion", string(seed.Emotion)) + "  " + field("horizon", insight.FormatHorizon(seed.Horizon)),
		"",
		field("echo", in.FutureEcho),
		field("ritual", in.MicroRitual),
		field("signal", in.Signal),
		field("anchor", in.Anchor),
		"",
		in.Mantra,
		"",
		field("pattern", in.Pattern.Name),
		field("colors", strings.Join(in.Pattern.Colors, " ")),
		field("vector", fmt.Sprintf("(%.3f, %.3f)", in.Vector.X, in.Vector.Y)),
	}
	return cardStyle(border).Render(strings.Join(lines, "\n"))
}

// renderState draws the lifeform payload.
func renderState(p types.StatePayload) string {
	lines := []string{
		titleStyle.Render("Lifeform"),
		field("mood", p.State.Mood) + "  " + field("curiosity", fmt.Sprintf("%.2f", p.State.Curiosity)),
		field("memories", fmt.Sprintf("%d", p.MemoriesCount)),
		"",
	}
	if p.PendingQuestion != nil {
		lines = append(lines, field(fmt.Sprintf("question #%d", p.PendingQuestion.ID), p.PendingQuestion.Text))
	} else {
		lines = append(lines, labelStyle.Render("no pending question"))
	}
	if p.LastReflection != nil {
		lines = append(lines, field("reflection", p.LastReflection.Text))
	}
	return cardStyle(accentColor).Render(strings.Join(lines, "\n"))
}

// renderFadedText draws text with each character dimmed or dropped by its
// opacity.
func renderFadedText(text string, opacities []float64) string {
	var b strings.Builder
	for i, r := range []rune(text) {
		o := 1.0
		if i < len(opacities) {
			o = opacities[i]
		}
		switch {
		case r == ' ':
			b.WriteRune(r)
		case o >= 0.66:
			b.WriteRune(r)
		case o >= 0.33:
			b.WriteString(faintStyle.Render(string(r)))
		case o > 0:
			b.WriteRune('·')
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// renderFrame describes one decay frame.
func renderFrame(frame engine.DecayFrame, text string) string {
	lines := []string{
		field("mode", string(frame.Mode)) + "  " +
			field("progress", fmt.Sprintf("%.0f%%", frame.Progress*100)) + "  " +
			field("remaining", frame.Label),
	}
	switch frame.Mode {
	case types.DecayFade:
		lines = append(lines, renderFadedText(text, frame.Opacities))
	case types.DecayPixelate:
		if frame.BlockSize != nil {
			lines = append(lines, field("block", fmt.Sprintf("%dpx", *frame.BlockSize)))
		}
		lines = append(lines, text)
	case types.DecayBlur:
		if frame.Blur != nil {
			lines = append(lines, field("blur", fmt.Sprintf("%.1fpx", *frame.Blur)))
		}
		lines = append(lines, text)
	case types.DecayFragment:
		for _, f := range frame.Fragments {
			lines = append(lines, fmt.Sprintf("%-16s %+7.1f %+7.1f  %.2f", f.Word, f.Offset.X, f.Offset.Y, f.Opacity))
		}
	}
	return strings.Join(lines, "\n")
}
