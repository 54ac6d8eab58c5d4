package debate

import "time"

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

type RoundType string

const (
	RoundStatement    RoundType = "statement"
	RoundSummary      RoundType = "summary"
	RoundEscalation   RoundType = "escalation"
	RoundFinalSummary RoundType = "final_summary"
)

// Fixed participant ids. The moderator is a singleton; the human participant
// is synthesized from the owning user and never sent to the LLM.
const (
	ModeratorID = "moderator"
	HumanID     = "user"
	HumanModel  = "human"
)

// Agent is a debate participant for the duration of one session.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Model       string `json:"model"`
	Persona     string `json:"persona"`
	Seat        int    `json:"seat"`
	IsModerator bool   `json:"is_moderator"`
	IsHuman     bool   `json:"is_human"`
	Active      bool   `json:"active"`
}

// Message is one utterance in the transcript. Agent metadata is denormalized
// at speaking time so later avatar edits do not rewrite history.
type Message struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id"`
	AgentName   string    `json:"agent_name"`
	AgentColor  string    `json:"agent_color"`
	AgentModel  string    `json:"agent_model"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	TokensUsed  int       `json:"tokens_used"`
	IsStreaming bool      `json:"is_streaming"`
	RoundType   RoundType `json:"round_type"`
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
	ReasoningTokens  int `json:"reasoningTokens"`
}
