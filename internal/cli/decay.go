package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scrypster/ephemera/internal/engine"
	"github.com/scrypster/ephemera/pkg/types"
)

func newDecayCmd() *cobra.Command {
	var (
		mode     string
		duration time.Duration
		elapsed  time.Duration
		text     string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Show how text looks part way through its decay",
		Long: `Compute one decay frame for text.

Examples:
  ephemera decay --mode fade --duration 45s --elapsed 30s --text "let it go"
  ephemera decay --mode fragment --elapsed 20s --text "words drift apart" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := types.DecayDescriptor{Mode: types.DecayMode(mode), Duration: duration}
			if !types.IsValidDecayMode(d.Mode) {
				return fmt.Errorf("unknown decay mode %q (want one of %v)", mode, types.ValidDecayModes)
			}
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive")
			}
			if elapsed < 0 {
				return fmt.Errorf("--elapsed must not be negative")
			}

			d.Origin = time.Now()
			frame := engine.Frame(d, text, d.Origin.Add(elapsed))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(frame)
			}
			_, err := fmt.Fprintln(out, renderFrame(frame, text))
			return err
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(types.DecayFade), "fade, pixelate, blur or fragment")
	cmd.Flags().DurationVar(&duration, "duration", 45*time.Second, "total decay time")
	cmd.Flags().DurationVar(&elapsed, "elapsed", 0, "time since the decay started")
	cmd.Flags().StringVar(&text, "text", "Everything here is temporary.", "text to decay")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the frame as JSON")
	return cmd
}

func newBalanceCmd() *cobra.Command {
	var weaved, released, active int
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Score weaved against released threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if weaved < 0 || released < 0 || active < 0 {
				return fmt.Errorf("counts must not be negative")
			}
			b := engine.ScoreBalance(weaved, released, active)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.2f  %s\n", b.Score, b.Interpretation)
			return err
		},
	}
	cmd.Flags().IntVar(&weaved, "weaved", 0, "threads lived")
	cmd.Flags().IntVar(&released, "released", 0, "threads let go")
	cmd.Flags().IntVar(&active, "active", 0, "threads still looming")
	return cmd
}
