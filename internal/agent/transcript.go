package agent

import "mcp-search-go/internal/llm"

// Transcript is the append-only message history of a single query.
// It is owned by one Answer call and is not safe for concurrent use.
type Transcript struct {
	messages []llm.Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds m after every message already present.
func (t *Transcript) Append(m llm.Message) {
	t.messages = append(t.messages, m)
}

// Messages returns a copy of the history in production order.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}
