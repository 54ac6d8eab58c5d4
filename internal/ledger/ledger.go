package ledger

import (
	"context"

	"debate-arena/internal/store"
)

// Ledger names the credit movements the debate lifecycle produces. Every
// balance change goes through here so each one lands as a typed entry.
type Ledger struct {
	Store *store.Store
}

func New(s *store.Store) *Ledger {
	return &Ledger{Store: s}
}

// DebitUsage charges a user for the tokens one debate turn consumed.
func (l *Ledger) DebitUsage(ctx context.Context, userID, debateID string, amount int64) (int64, error) {
	return l.Store.DebitCredits(ctx, userID, amount, "usage_debit", "debate", debateID)
}

// CreditTopup grants credits, typically via the admin endpoint.
func (l *Ledger) CreditTopup(ctx context.Context, userID, reason string, amount int64) (int64, error) {
	return l.Store.CreditTopup(ctx, userID, amount, "topup_credit", "admin", reason)
}
