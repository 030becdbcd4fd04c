package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/booksum/pkg/errors"
	"github.com/yanqian/booksum/pkg/metrics"
)

func newTestSynthesizer(client Completer, store CacheStore, contextSize int) *Synthesizer {
	logger := newTestLogger()
	policy := newTestPolicy(3, &recordingSleeper{})
	return NewSynthesizer(Config{SynthesisContextSize: contextSize}, wordTokenizer{}, client, policy, NewMemoizer(store, nil, logger), logger)
}

func TestSynthesizeNumbersSummaries(t *testing.T) {
	client := &scriptedCompleter{text: "  merged summary \n"}
	synth := newTestSynthesizer(client, newMapStore(), 0)
	usage := metrics.NewUsageAccumulator()

	got, err := synth.Synthesize(context.Background(), []string{"first draft", "second draft"}, "gpt-4", usage)
	require.NoError(t, err)
	require.Equal(t, "merged summary", got)
	require.Equal(t, "gpt-4", client.last.Model)
	require.Len(t, client.last.Messages, 1)
	prompt := client.last.Messages[0].Content
	require.Contains(t, prompt, "generated 2 summaries")
	require.Contains(t, prompt, "Summary 1: first draft\n\nSummary 2: second draft")

	spent, calls := usage.Snapshot()
	require.Equal(t, 1, calls)
	require.Equal(t, 15, spent.TotalTokens)
}

func TestSynthesizeIsMemoized(t *testing.T) {
	client := &scriptedCompleter{text: "merged"}
	synth := newTestSynthesizer(client, newMapStore(), 0)
	drafts := []string{"one", "two"}

	for i := 0; i < 2; i++ {
		got, err := synth.Synthesize(context.Background(), drafts, "gpt-4", nil)
		require.NoError(t, err)
		require.Equal(t, "merged", got)
	}
	require.Equal(t, 1, client.calls)

	_, err := synth.Synthesize(context.Background(), drafts, "other-model", nil)
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
}

func TestSynthesizeRejectsOversizedPrompt(t *testing.T) {
	client := &scriptedCompleter{text: "merged"}
	synth := newTestSynthesizer(client, newMapStore(), 20)

	_, err := synth.Synthesize(context.Background(), []string{"one", "two"}, "gpt-4", nil)
	require.True(t, apperrors.IsCode(err, CodePrecondition))
	require.Zero(t, client.calls)
}

func TestSynthesizeRequiresSummaries(t *testing.T) {
	client := &scriptedCompleter{text: "merged"}
	synth := newTestSynthesizer(client, newMapStore(), 0)

	_, err := synth.Synthesize(context.Background(), nil, "gpt-4", nil)
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))
	require.Zero(t, client.calls)
}
