package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`

	RelayRequestTimeout time.Duration `env:"RELAY_REQUEST_TIMEOUT" envDefault:"120s"`
	RelayIdleTimeout    time.Duration `env:"RELAY_IDLE_TIMEOUT" envDefault:"30s"`
	RelayMaxRetries     int           `env:"RELAY_MAX_RETRIES" envDefault:"2"`

	StaticDir string `env:"STATIC_DIR" envDefault:"web/dist"`

	DemoUserName    string `env:"DEMO_USER_NAME"`
	DemoUserKey     string `env:"DEMO_USER_KEY"`
	DemoUserCredits int64  `env:"DEMO_USER_CREDITS" envDefault:"1000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
