package store_test

import (
	"context"
	"errors"
	"testing"

	"debate-arena/internal/store"
	"debate-arena/internal/testutil"
)

func TestUsersAndCredits(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	userID, err := st.CreateUser(ctx, "Ada", "key-ada", 100)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := st.GetUserByAPIKey(ctx, "key-ada")
	if err != nil {
		t.Fatalf("get by api key: %v", err)
	}
	if u.ID != userID || u.Name != "Ada" || u.Credits != 100 {
		t.Fatalf("unexpected user: %+v", u)
	}
	if _, err := st.GetUserByAPIKey(ctx, "no-such-key"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bal, err := st.DebitCredits(ctx, userID, 30, "usage_debit", "debate", "d1")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if bal != 70 {
		t.Fatalf("expected balance 70, got %d", bal)
	}
	if _, err := st.DebitCredits(ctx, userID, 71, "usage_debit", "debate", "d1"); !errors.Is(err, store.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if bal, _ = st.GetCredits(ctx, userID); bal != 70 {
		t.Fatalf("failed debit must not change balance, got %d", bal)
	}

	bal, err = st.CreditTopup(ctx, userID, 50, "topup_credit", "admin", "manual")
	if err != nil {
		t.Fatalf("topup: %v", err)
	}
	if bal != 120 {
		t.Fatalf("expected balance 120, got %d", bal)
	}

	entries, err := st.ListCreditEntries(ctx, userID, 10, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Amount != -30 && e.Amount != 50 {
			t.Fatalf("unexpected entry amount %d", e.Amount)
		}
	}
}

func TestAvatarsUpsertAndList(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	a := store.Avatar{ID: "optimist", Name: "Nova", Color: "#3ddc84", Model: "gpt-4o-mini", Persona: "sunny", Seat: 1, Active: true}
	if err := st.UpsertAvatar(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	inactive := store.Avatar{ID: "lurker", Name: "Lurker", Color: "#444444", Model: "gpt-4o-mini", Seat: 2}
	if err := st.UpsertAvatar(ctx, inactive); err != nil {
		t.Fatalf("upsert inactive: %v", err)
	}

	active, err := st.ListActiveAvatars(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "optimist" {
		t.Fatalf("unexpected active avatars: %+v", active)
	}

	a.Name = "Nova II"
	if err := st.UpsertAvatar(ctx, a); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err := st.GetAvatar(ctx, "optimist")
	if err != nil {
		t.Fatalf("get avatar: %v", err)
	}
	if got.Name != "Nova II" {
		t.Fatalf("upsert did not update name: %+v", got)
	}
	n, err := st.CountAvatars(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 avatars, got %d", n)
	}
}

func TestDebateLifecycleRows(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	userID, err := st.CreateUser(ctx, "Ada", "key-ada", 100)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	debateID, err := st.CreateDebate(ctx, store.Debate{
		UserID:     userID,
		Topic:      "Is brevity a virtue?",
		Language:   "en",
		Status:     "running",
		MaxRounds:  4,
		RosterJSON: []byte(`[]`),
	})
	if err != nil {
		t.Fatalf("create debate: %v", err)
	}

	active, err := st.GetActiveDebateByUser(ctx, userID)
	if err != nil {
		t.Fatalf("active by user: %v", err)
	}
	if active.ID != debateID {
		t.Fatalf("expected active debate %s, got %s", debateID, active.ID)
	}

	if err := st.AppendMessage(ctx, store.DebateMessage{
		DebateID: debateID, AgentID: "optimist", AgentName: "Nova",
		RoundType: "statement", Content: "Yes.", TokensUsed: 900,
	}); err != nil {
		t.Fatalf("append message: %v", err)
	}
	if err := st.UpdateDebateProgress(ctx, debateID, 1, 1); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if err := st.UpdateDebateStatus(ctx, debateID, "finished"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if _, err := st.GetActiveDebateByUser(ctx, userID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("finished debate must not be active, got %v", err)
	}

	d, err := st.GetDebate(ctx, debateID)
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if d.Status != "finished" || d.RoundCount != 1 || d.CreditsUsed != 1 {
		t.Fatalf("unexpected debate row: %+v", d)
	}

	msgs, err := st.ListMessages(ctx, debateID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "Yes." || msgs[0].TokensUsed != 900 {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	all, err := st.ListDebates(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list debates: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 debate, got %d", len(all))
	}
}
