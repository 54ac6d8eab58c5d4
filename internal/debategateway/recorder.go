package debategateway

import (
	"context"

	"debate-arena/internal/debate"
	"debate-arena/internal/ledger"
	"debate-arena/internal/store"
)

// storeRecorder persists engine output through the store and routes credit
// debits through the ledger. Implements debate.Recorder.
type storeRecorder struct {
	store  *store.Store
	ledger *ledger.Ledger
}

func (r storeRecorder) AppendMessage(ctx context.Context, debateID string, m debate.Message) error {
	return r.store.AppendMessage(ctx, store.DebateMessage{
		ID:         m.ID,
		DebateID:   debateID,
		AgentID:    m.AgentID,
		AgentName:  m.AgentName,
		AgentColor: m.AgentColor,
		AgentModel: m.AgentModel,
		RoundType:  string(m.RoundType),
		Content:    m.Content,
		TokensUsed: m.TokensUsed,
	})
}

func (r storeRecorder) UpdateProgress(ctx context.Context, debateID string, roundCount int, creditsUsed int64) error {
	return r.store.UpdateDebateProgress(ctx, debateID, roundCount, creditsUsed)
}

func (r storeRecorder) UpdateStatus(ctx context.Context, debateID string, status debate.Status) error {
	return r.store.UpdateDebateStatus(ctx, debateID, string(status))
}

func (r storeRecorder) DebitCredits(ctx context.Context, userID, debateID string, amount int64) (int64, error) {
	return r.ledger.DebitUsage(ctx, userID, debateID, amount)
}
