package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type DebateConfig struct {
	SummaryEvery    int `env:"DEBATE_SUMMARY_EVERY" envDefault:"5"`
	EscalationEvery int `env:"DEBATE_ESCALATION_EVERY" envDefault:"15"`

	StatementContextSize int `env:"DEBATE_STATEMENT_CONTEXT" envDefault:"12"`
	SummaryContextSize   int `env:"DEBATE_SUMMARY_CONTEXT" envDefault:"40"`

	DefaultMaxRounds int           `env:"DEBATE_MAX_ROUNDS" envDefault:"20"`
	TurnPause        time.Duration `env:"DEBATE_TURN_PAUSE" envDefault:"2s"`
	SessionTTL       time.Duration `env:"DEBATE_SESSION_TTL" envDefault:"2h"`
}

func LoadDebate() (DebateConfig, error) {
	var cfg DebateConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects sequencer settings the round classifier cannot honor.
// Escalations must land on a summary checkpoint.
func (c DebateConfig) Validate() error {
	if c.SummaryEvery < 1 {
		return fmt.Errorf("DEBATE_SUMMARY_EVERY must be >= 1, got %d", c.SummaryEvery)
	}
	if c.EscalationEvery < 1 {
		return fmt.Errorf("DEBATE_ESCALATION_EVERY must be >= 1, got %d", c.EscalationEvery)
	}
	if c.EscalationEvery%c.SummaryEvery != 0 {
		return fmt.Errorf("DEBATE_ESCALATION_EVERY (%d) must be a multiple of DEBATE_SUMMARY_EVERY (%d)",
			c.EscalationEvery, c.SummaryEvery)
	}
	if c.DefaultMaxRounds < 1 {
		return fmt.Errorf("DEBATE_MAX_ROUNDS must be >= 1, got %d", c.DefaultMaxRounds)
	}
	return nil
}
