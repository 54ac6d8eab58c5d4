package debate

import "context"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model        string        `json:"model"`
	SystemPrompt string        `json:"systemPrompt"`
	Messages     []ChatMessage `json:"messages"`
}

// StreamEvent is one typed event from a chat completion stream. Exactly one
// of the fields is meaningful: a text delta, a usage summary, a terminal
// error, or the Done marker. The producer closes the channel after Done.
type StreamEvent struct {
	Delta string
	Usage *Usage
	Err   error
	Done  bool
}

// Streamer produces a chat completion as an ordered event stream. Canceling
// the context aborts the stream; the channel is always closed eventually.
type Streamer interface {
	StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)
}
