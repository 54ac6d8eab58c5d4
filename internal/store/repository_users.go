package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateUser(ctx context.Context, name, apiKey string, initialCredits int64) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO users (id, name, api_key_hash, credits) VALUES ($1, $2, $3, $4)`,
		id, name, HashAPIKey(apiKey), initialCredits)
	return id, err
}

func (s *Store) GetUserByAPIKey(ctx context.Context, apiKey string) (*User, error) {
	return s.getUser(ctx, `SELECT id, name, api_key_hash, credits, created_at FROM users WHERE api_key_hash = $1`,
		HashAPIKey(apiKey))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `SELECT id, name, api_key_hash, credits, created_at FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.Pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.APIKeyHash, &u.Credits, &u.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (s *Store) GetCredits(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := s.Pool.QueryRow(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&credits)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return credits, nil
}

// DebitCredits subtracts from the user's balance and records a ledger entry
// in one transaction. The balance may not go negative.
func (s *Store) DebitCredits(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	return s.adjustCredits(ctx, userID, -amount, entryType, refType, refID)
}

func (s *Store) CreditTopup(ctx context.Context, userID string, amount int64, entryType, refType, refID string) (int64, error) {
	return s.adjustCredits(ctx, userID, amount, entryType, refType, refID)
}

func (s *Store) adjustCredits(ctx context.Context, userID string, delta int64, entryType, refType, refID string) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `SELECT credits FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return 0, mapNotFound(err)
	}
	newBalance := balance + delta
	if newBalance < 0 {
		return 0, ErrInsufficientCredits
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET credits = $1 WHERE id = $2`, newBalance, userID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO credit_entries (id, user_id, amount, type, ref_type, ref_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		NewID(), userID, delta, entryType, refType, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *Store) ListCreditEntries(ctx context.Context, userID string, limit, offset int) ([]CreditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, amount, type, ref_type, ref_id, created_at
		 FROM credit_entries WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CreditEntry, 0, limit)
	for rows.Next() {
		var e CreditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
