package store

import "context"

func (s *Store) CreateDebate(ctx context.Context, d Debate) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO debates (id, user_id, topic, language, status, round_count, max_rounds, credits_used, roster_json)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, d.UserID, d.Topic, d.Language, d.Status, d.RoundCount, d.MaxRounds, d.CreditsUsed, d.RosterJSON)
	return id, err
}

func (s *Store) GetDebate(ctx context.Context, id string) (*Debate, error) {
	var d Debate
	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, topic, language, status, round_count, max_rounds, credits_used, roster_json, created_at
		 FROM debates WHERE id = $1`, id).
		Scan(&d.ID, &d.UserID, &d.Topic, &d.Language, &d.Status, &d.RoundCount, &d.MaxRounds, &d.CreditsUsed, &d.RosterJSON, &d.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

// GetActiveDebateByUser returns the user's running or paused debate, if any.
func (s *Store) GetActiveDebateByUser(ctx context.Context, userID string) (*Debate, error) {
	var d Debate
	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, topic, language, status, round_count, max_rounds, credits_used, roster_json, created_at
		 FROM debates WHERE user_id = $1 AND status IN ('running', 'paused')
		 ORDER BY created_at DESC LIMIT 1`, userID).
		Scan(&d.ID, &d.UserID, &d.Topic, &d.Language, &d.Status, &d.RoundCount, &d.MaxRounds, &d.CreditsUsed, &d.RosterJSON, &d.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

func (s *Store) UpdateDebateProgress(ctx context.Context, id string, roundCount int, creditsUsed int64) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE debates SET round_count = $1, credits_used = $2 WHERE id = $3`,
		roundCount, creditsUsed, id)
	return err
}

func (s *Store) UpdateDebateStatus(ctx context.Context, id, status string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE debates SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (s *Store) ListDebates(ctx context.Context, limit, offset int) ([]Debate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, topic, language, status, round_count, max_rounds, credits_used, roster_json, created_at
		 FROM debates ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Debate, 0, limit)
	for rows.Next() {
		var d Debate
		if err := rows.Scan(&d.ID, &d.UserID, &d.Topic, &d.Language, &d.Status, &d.RoundCount, &d.MaxRounds, &d.CreditsUsed, &d.RosterJSON, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) AppendMessage(ctx context.Context, m DebateMessage) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO debate_messages (id, debate_id, agent_id, agent_name, agent_color, agent_model, round_type, content, tokens_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.DebateID, m.AgentID, m.AgentName, m.AgentColor, m.AgentModel, m.RoundType, m.Content, m.TokensUsed)
	return err
}

func (s *Store) ListMessages(ctx context.Context, debateID string) ([]DebateMessage, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, debate_id, agent_id, agent_name, agent_color, agent_model, round_type, content, tokens_used, created_at
		 FROM debate_messages WHERE debate_id = $1 ORDER BY created_at, id`, debateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DebateMessage
	for rows.Next() {
		var m DebateMessage
		if err := rows.Scan(&m.ID, &m.DebateID, &m.AgentID, &m.AgentName, &m.AgentColor, &m.AgentModel, &m.RoundType, &m.Content, &m.TokensUsed, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
