package debategateway

import "debate-arena/internal/debate"

type CreateDebateRequest struct {
	Topic     string   `json:"topic"`
	Language  string   `json:"language,omitempty"`
	MaxRounds int      `json:"max_rounds,omitempty"`
	AgentIDs  []string `json:"agent_ids,omitempty"`
}

type CreateDebateResponse struct {
	DebateID  string          `json:"debate_id"`
	StreamURL string          `json:"stream_url"`
	State     debate.Snapshot `json:"state"`
}

type StateResponse struct {
	debate.Snapshot
	CreditsRemaining int64 `json:"credits_remaining"`
}

type HandRequest struct {
	Raised bool `json:"raised"`
}

type MessageRequest struct {
	Content string `json:"content"`
}

type TopupRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type TopupResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
