package summarizer

import (
	"fmt"
	"strings"
)

// Chat framing overhead, as counted for the gpt-3.5/gpt-4 family: every
// message costs three tokens on top of its fields and every reply is primed
// with three more.
const (
	tokensPerMessage = 3
	tokensPerReply   = 3
)

func summarizationMessages(text string, targetSize int) []Message {
	instructions := fmt.Sprintf("You are an expert literary summarizer. Summarize the text provided by the user in at most %d tokens. "+
		"Keep the main events, characters and themes in the order they appear. "+
		"Passages wrapped in %s and %s are earlier summaries of consecutive parts of the same work; "+
		"merge them into one continuous summary.", targetSize, SummaryOpen, SummaryClose)
	return []Message{
		{Role: "system", Content: instructions},
		{Role: "user", Content: text},
	}
}

func synthesisMessages(summaries []string) []Message {
	var joined strings.Builder
	for i, summary := range summaries {
		fmt.Fprintf(&joined, "Summary %d: %s\n\n", i+1, summary)
	}
	content := fmt.Sprintf(`A less powerful GPT model generated %d summaries of a book.

Because of the way that the summaries are generated, they may not be perfect. Please review them
and synthesize them into a single more detailed summary that you think is best.

The summaries are as follows: %s`, len(summaries), joined.String())
	return []Message{{Role: "user", Content: strings.TrimSpace(content)}}
}

// countMessages returns the prompt cost of messages including chat framing.
func countMessages(tok Tokenizer, messages []Message) int {
	total := tokensPerReply
	for _, msg := range messages {
		total += tokensPerMessage + tok.Count(msg.Role) + tok.Count(msg.Content)
	}
	return total
}

// StripMarkers removes the summary span markers from text.
func StripMarkers(text string) string {
	return strings.NewReplacer(SummaryOpen, "", SummaryClose, "").Replace(text)
}

func preview(text string, limit int) string {
	flat := []rune(strings.Join(strings.Fields(text), " "))
	if len(flat) <= limit {
		return string(flat)
	}
	return string(flat[:limit]) + "..."
}
