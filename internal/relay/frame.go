package relay

import "debate-arena/internal/debate"

// frame is the wire shape of one SSE data payload. Exactly one field is set
// per frame; the terminator is the literal [DONE] and never JSON.
type frame struct {
	Content string        `json:"content,omitempty"`
	Usage   *debate.Usage `json:"usage,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type chatPayload struct {
	Model        string               `json:"model"`
	SystemPrompt string               `json:"systemPrompt,omitempty"`
	Messages     []debate.ChatMessage `json:"messages"`
}
