package main

import (
	"context"

	"debate-arena/internal/config"
	"debate-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// defaultAvatars is the out-of-the-box roster: a moderator plus four
// debaters with opposing temperaments. Installed only into an empty
// catalog so operator edits survive restarts.
var defaultAvatars = []store.Avatar{
	{ID: store.ModeratorAvatarID, Name: "Moderator", Color: "#9aa0a6", Model: "gpt-4o-mini", Persona: "A neutral, rigorous debate moderator.", IsModerator: true, Active: true},
	{ID: "optimist", Name: "Nova", Color: "#4099ff", Model: "gpt-4o-mini", Persona: "A relentless techno-optimist who sees upside everywhere.", Seat: 1, Active: true},
	{ID: "skeptic", Name: "Salt", Color: "#ff7040", Model: "gpt-4o-mini", Persona: "A dry skeptic who demands evidence for every claim.", Seat: 2, Active: true},
	{ID: "economist", Name: "Ledger", Color: "#40c060", Model: "gpt-4o-mini", Persona: "An economist who reduces everything to incentives and trade-offs.", Seat: 3, Active: true},
	{ID: "ethicist", Name: "Vera", Color: "#c060ff", Model: "gpt-4o-mini", Persona: "An ethicist focused on who gets hurt and who decides.", Seat: 4, Active: true},
}

func seedAvatars(st *store.Store) {
	ctx := context.Background()
	n, err := st.CountAvatars(ctx)
	if err != nil {
		log.Error().Err(err).Msg("count avatars failed")
		return
	}
	if n > 0 {
		return
	}
	for _, a := range defaultAvatars {
		if err := st.UpsertAvatar(ctx, a); err != nil {
			log.Error().Err(err).Str("avatar_id", a.ID).Msg("seed avatar failed")
		}
	}
	log.Info().Int("count", len(defaultAvatars)).Msg("seeded default avatars")
}

func seedDemoUser(st *store.Store, cfg config.ServerConfig) {
	if cfg.DemoUserName == "" || cfg.DemoUserKey == "" {
		return
	}
	ctx := context.Background()
	if u, err := st.GetUserByAPIKey(ctx, cfg.DemoUserKey); err == nil && u != nil {
		return
	}
	id, err := st.CreateUser(ctx, cfg.DemoUserName, cfg.DemoUserKey, cfg.DemoUserCredits)
	if err != nil {
		log.Error().Err(err).Msg("seed demo user failed")
		return
	}
	log.Info().Str("user_id", id).Str("name", cfg.DemoUserName).Msg("seeded demo user")
}
