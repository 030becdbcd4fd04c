package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanqian/booksum/internal/bootstrap"
	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/internal/infra/config"
)

var (
	summarizeSource     string
	summarizeTargets    string
	summarizeContext    int
	summarizeDivision   string
	summarizeSynthesize bool
	summarizeDryRun     bool
)

// summarizeCmd summarizes one book.
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a book",
	Long: `Summarize a book read from a file, an http(s) URL, an s3://bucket/key
object, or stdin ("-") into one summary per target size.

With --dry-run no model is called: an offline completer truncates its input
and results go to an in-memory cache.`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeSource, "source", "s", "",
		"Book to summarize: path, URL, s3://bucket/key or - for stdin")
	summarizeCmd.Flags().StringVarP(&summarizeTargets, "targets", "t", "",
		"Comma separated target summary sizes in tokens (default from config)")
	summarizeCmd.Flags().IntVar(&summarizeContext, "context", 0,
		"Model context window in tokens (default from config)")
	summarizeCmd.Flags().StringVar(&summarizeDivision, "division", "",
		"Division point used to split long texts (default from config)")
	summarizeCmd.Flags().BoolVar(&summarizeSynthesize, "synthesize", false,
		"Merge the per-target summaries with the synthesis model")
	summarizeCmd.Flags().BoolVar(&summarizeDryRun, "dry-run", false,
		"Use the offline completer and an in-memory cache")
	_ = summarizeCmd.MarkFlagRequired("source")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(func(c *config.Config) {
		if summarizeDryRun {
			c.LLM.Provider = config.ProviderEcho
			c.Cache.Backend = config.CacheMemory
		}
	})
	if err != nil {
		return err
	}

	req := summarizer.Request{
		ContextSize:   summarizeContext,
		DivisionPoint: summarizeDivision,
		Synthesize:    summarizeSynthesize,
	}
	if summarizeTargets != "" {
		sizes, err := config.ParseSizes(summarizeTargets)
		if err != nil {
			return fmt.Errorf("invalid --targets: %w", err)
		}
		req.TargetSizes = sizes
	}
	if summarizeSource == "-" {
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		req.Text = string(payload)
	} else {
		req.Source = summarizeSource
	}

	app, cleanup, err := bootstrap.BuildSummarizer(cfg, newLogger())
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := app.Service.Summarize(ctx, req)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(resp)
	}
	fmt.Print(formatResponse(resp))
	return nil
}

func formatResponse(resp summarizer.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Input: %d tokens\n\n", resp.InputTokens)
	for _, item := range resp.Summaries {
		fmt.Fprintf(&b, "=== Target %d tokens (got %d, %d calls) ===\n%s\n\n",
			item.TargetSize, item.TokenCount, item.Calls, item.Summary)
	}
	if resp.Synthesis != "" {
		fmt.Fprintf(&b, "=== Synthesis ===\n%s\n\n", resp.Synthesis)
	}
	if resp.TokenUsage != nil {
		fmt.Fprintf(&b, "Spent %d tokens (%d prompt, %d completion) in %dms\n",
			resp.TokenUsage.TotalTokens, resp.TokenUsage.PromptTokens,
			resp.TokenUsage.CompletionTokens, resp.DurationMs)
	} else {
		fmt.Fprintf(&b, "Served from cache in %dms\n", resp.DurationMs)
	}
	return b.String()
}
