package store

import "context"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	api_key_hash TEXT NOT NULL UNIQUE,
	credits      BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS avatars (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	color        TEXT NOT NULL DEFAULT '#888888',
	model        TEXT NOT NULL,
	persona      TEXT NOT NULL DEFAULT '',
	seat         INT  NOT NULL DEFAULT 0,
	is_moderator BOOLEAN NOT NULL DEFAULT FALSE,
	active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS debates (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id),
	topic        TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT 'en',
	status       TEXT NOT NULL DEFAULT 'running',
	round_count  INT  NOT NULL DEFAULT 0,
	max_rounds   INT  NOT NULL,
	credits_used BIGINT NOT NULL DEFAULT 0,
	roster_json  JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_debates_user_status ON debates (user_id, status);

CREATE TABLE IF NOT EXISTS debate_messages (
	id          TEXT PRIMARY KEY,
	debate_id   TEXT NOT NULL REFERENCES debates(id),
	agent_id    TEXT NOT NULL,
	agent_name  TEXT NOT NULL,
	agent_color TEXT NOT NULL DEFAULT '',
	agent_model TEXT NOT NULL DEFAULT '',
	round_type  TEXT NOT NULL,
	content     TEXT NOT NULL,
	tokens_used INT  NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_debate_messages_debate ON debate_messages (debate_id, created_at);

CREATE TABLE IF NOT EXISTS credit_entries (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	amount     BIGINT NOT NULL,
	type       TEXT NOT NULL,
	ref_type   TEXT NOT NULL DEFAULT '',
	ref_id     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_credit_entries_user ON credit_entries (user_id, created_at);
`

// Bootstrap applies the schema. Idempotent.
func (s *Store) Bootstrap(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schemaDDL)
	return err
}
