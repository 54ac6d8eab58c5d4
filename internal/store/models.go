package store

import "time"

type User struct {
	ID         string
	Name       string
	APIKeyHash string
	Credits    int64
	CreatedAt  time.Time
}

type Avatar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Model       string `json:"model"`
	Persona     string `json:"persona"`
	Seat        int    `json:"seat"`
	IsModerator bool   `json:"is_moderator"`
	Active      bool   `json:"active"`
}

type Debate struct {
	ID          string
	UserID      string
	Topic       string
	Language    string
	Status      string
	RoundCount  int
	MaxRounds   int
	CreditsUsed int64
	RosterJSON  []byte
	CreatedAt   time.Time
}

type DebateMessage struct {
	ID         string
	DebateID   string
	AgentID    string
	AgentName  string
	AgentColor string
	AgentModel string
	RoundType  string
	Content    string
	TokensUsed int
	CreatedAt  time.Time
}

type CreditEntry struct {
	ID        string
	UserID    string
	Amount    int64
	Type      string
	RefType   string
	RefID     string
	CreatedAt time.Time
}
