package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"debate-arena/internal/config"
	"debate-arena/internal/debate"
	"debate-arena/internal/debategateway"
	"debate-arena/internal/relay"
	"debate-arena/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func newRouter(st *store.Store, cfg config.ServerConfig, coord *debategateway.Coordinator, streamer debate.Streamer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/health", healthHandler(st))

	relayHandler := relay.NewHandler(streamer, storeKeys{st}, cfg.RelayRequestTimeout, cfg.RelayIdleTimeout)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware())
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeHTTPError(w, http.StatusNotFound, "not_found")
		})

		r.Method(http.MethodPost, "/chat", relayHandler)

		r.Get("/avatars", debategateway.AvatarsHandler(coord))
		r.Post("/debates", debategateway.CreateDebateHandler(coord))
		r.Get("/debates/active", debategateway.ActiveDebateHandler(coord))
		r.Get("/debates/{debate_id}/state", debategateway.StateHandler(coord))
		r.Get("/debates/{debate_id}/events", debategateway.EventsSSEHandler(coord))
		r.Post("/debates/{debate_id}/pause", debategateway.PauseHandler(coord))
		r.Post("/debates/{debate_id}/resume", debategateway.ResumeHandler(coord))
		r.Post("/debates/{debate_id}/hand", debategateway.HandHandler(coord))
		r.Post("/debates/{debate_id}/messages", debategateway.SubmitMessageHandler(coord))
		r.Delete("/debates/{debate_id}", debategateway.DeleteDebateHandler(coord))

		r.Get("/admin/debates", debategateway.AdminListDebatesHandler(coord, cfg.AdminAPIKey))
		r.Post("/admin/topup", debategateway.AdminTopupHandler(coord, cfg.AdminAPIKey))
	})

	r.Handle("/*", spaHandler(cfg.StaticDir))
	return r
}

// storeKeys authenticates relay bearer tokens against user accounts.
type storeKeys struct {
	st *store.Store
}

func (k storeKeys) VerifyAPIKey(ctx context.Context, key string) error {
	_, err := k.st.GetUserByAPIKey(ctx, key)
	return err
}

// spaHandler serves the built frontend, falling back to index.html for
// client-side routes.
func spaHandler(staticDir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(staticDir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
