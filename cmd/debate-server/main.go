package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"debate-arena/internal/config"
	"debate-arena/internal/debategateway"
	"debate-arena/internal/ledger"
	"debate-arena/internal/logging"
	"debate-arena/internal/relay"
	"debate-arena/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)
	cfg := app.Server
	debateCfg := app.Debate

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Bootstrap(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	seedAvatars(st)
	seedDemoUser(st, cfg)

	led := ledger.New(st)
	streamer := relay.NewProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.RelayMaxRetries)
	coord := debategateway.NewCoordinator(st, led, streamer, debateCfg)
	coord.StartJanitor(context.Background(), time.Minute)

	r := newRouter(st, cfg, coord, streamer)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "db": "down", "timestamp": time.Now().UTC()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "timestamp": time.Now().UTC()})
	}
}
