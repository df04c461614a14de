package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/pkg/types"
)

func newInsightCmd() *cobra.Command {
	var (
		seed   insight.ThreadSeed
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Generate the insight bundle for a thread",
		Long: `Generate the deterministic insight bundle for a thread. The same fields
always produce the same bundle.

Examples:
  ephemera insight --title "Morning pages" --emotion Wonder --horizon 3 \
    --trigger "I wake up" --impact "clarity and momentum"
  ephemera insight --id t-1 --title "Walk" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed.Title == "" {
				return fmt.Errorf("--title is required")
			}
			if !insight.IsKnownEmotion(seed.Emotion) {
				return fmt.Errorf("unknown emotion %q", seed.Emotion)
			}
			if seed.ID == "" {
				seed.ID = uuid.NewString()
			}
			return printInsight(cmd.OutOrStdout(), seed, asJSON)
		},
	}
	cmd.Flags().StringVar(&seed.ID, "id", "", "thread id (default: random)")
	cmd.Flags().StringVarP(&seed.Title, "title", "t", "", "thread title")
	cmd.Flags().StringVarP((*string)(&seed.Emotion), "emotion", "e", string(types.EmotionCuriosity), "emotion fuel")
	cmd.Flags().StringVar(&seed.Impact, "impact", "", "desired impact")
	cmd.Flags().IntVar(&seed.Horizon, "horizon", 7, "horizon in playful days")
	cmd.Flags().StringVar(&seed.Trigger, "trigger", "", "moment that triggers the ritual")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the bundle as JSON")
	return cmd
}

func printInsight(w io.Writer, seed insight.ThreadSeed, asJSON bool) error {
	bundle := insight.Generate(seed)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	}
	_, err := fmt.Fprintln(w, renderInsightCard(seed, bundle))
	return err
}

func newPairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <thread-id> <thread-id>",
		Short: "Draft a reciprocity experiment for two threads",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := insight.PairNarrative(types.Thread{ID: args[0]}, types.Thread{ID: args[1]})
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newSurpriseCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "surprise",
		Short: "Draft a random thread and show its insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := insight.Surprise(insight.AmbientSource())
			seed := insight.ThreadSeed{
				ID:      uuid.NewString(),
				Title:   draft.Title,
				Emotion: draft.Emotion,
				Horizon: draft.Horizon,
				Trigger: draft.Trigger,
				Impact:  draft.Impact,
			}
			return printInsight(cmd.OutOrStdout(), seed, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the bundle as JSON")
	return cmd
}

func newHorizonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "horizon <days>",
		Short: "Render a horizon in playful time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[0])
			if err != nil || days < 0 {
				return fmt.Errorf("horizon must be a non-negative integer, got %q", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), insight.FormatHorizon(days))
			return err
		},
	}
}
