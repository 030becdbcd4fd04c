package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/booksum/internal/bootstrap"
	"github.com/yanqian/booksum/internal/domain/summarizer"
)

var (
	planTarget  int
	planContext int
)

// planCmd prints token budgets without calling a model.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the token budgets for a target size",
	Long: `Show how many input tokens each summarization call may receive for a
target summary size and context window.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planTarget, "target", 0, "Target summary size in tokens")
	planCmd.Flags().IntVar(&planContext, "context", 0,
		"Model context window in tokens (default from config)")
	_ = planCmd.MarkFlagRequired("target")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	tok, err := bootstrap.ProvideTokenizer(cfg)
	if err != nil {
		return err
	}
	contextSize := planContext
	if contextSize <= 0 {
		contextSize = cfg.Summary.ContextSize
	}

	params, err := summarizer.Plan(tok, planTarget, contextSize)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(params)
	}
	fmt.Printf("Context window:   %d tokens\n", contextSize)
	fmt.Printf("Target summary:   %d tokens\n", params.TargetSummarySize)
	fmt.Printf("Input per call:   %d tokens\n", params.SummaryInputSize)
	return nil
}
