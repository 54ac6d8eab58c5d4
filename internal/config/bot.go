package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	APIKey    string `env:"API_KEY" envDefault:""`
	Topic     string `env:"DEBATE_TOPIC" envDefault:"Should AI agents moderate their own debates?"`
	Language  string `env:"DEBATE_LANGUAGE" envDefault:"en"`
	MaxRounds int    `env:"DEBATE_MAX_ROUNDS" envDefault:"6"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
