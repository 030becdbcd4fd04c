package summarizer

import (
	"fmt"

	apperrors "github.com/yanqian/booksum/pkg/errors"
)

// Plan derives the input budget for one summarization call: whatever the
// context window leaves after the fixed prompt and the requested summary.
func Plan(tok Tokenizer, targetSummarySize, modelContextSize int) (Params, error) {
	if targetSummarySize <= 0 {
		return Params{}, apperrors.Wrap(CodeConfig, fmt.Sprintf("target summary size must be positive, got %d", targetSummarySize), nil)
	}
	promptCost := countMessages(tok, summarizationMessages("", targetSummarySize))
	inputSize := modelContextSize - (promptCost + targetSummarySize)
	if inputSize <= 0 {
		return Params{}, apperrors.Wrap(CodeConfig, fmt.Sprintf(
			"context size %d leaves no room for input: prompt takes %d tokens and the summary %d",
			modelContextSize, promptCost, targetSummarySize), nil)
	}
	return Params{
		TargetSummarySize: targetSummarySize,
		SummaryInputSize:  inputSize,
	}, nil
}
