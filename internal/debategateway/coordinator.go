package debategateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"debate-arena/internal/config"
	"debate-arena/internal/debate"
	"debate-arena/internal/ledger"
	"debate-arena/internal/store"
)

const finishedSessionGrace = 10 * time.Minute

var (
	errDebateNotFound      = errors.New("debate_not_found")
	errDebateAlreadyActive = errors.New("debate_already_active")
	errTopicRequired       = errors.New("topic_required")
	errInsufficientCredits = errors.New("insufficient_credits")
	errUnsupportedLanguage = errors.New("unsupported_language")
)

type session struct {
	debateID    string
	userID      string
	engine      *debate.Engine
	buffer      *EventBuffer
	lastTouched time.Time
}

// Coordinator owns the live debate sessions: one engine and one event
// buffer per active debate, at most one active debate per user.
type Coordinator struct {
	store    *store.Store
	ledger   *ledger.Ledger
	streamer debate.Streamer
	cfg      config.DebateConfig

	mu       sync.Mutex
	sessions map[string]*session
	byUser   map[string]*session
}

func NewCoordinator(st *store.Store, led *ledger.Ledger, streamer debate.Streamer, cfg config.DebateConfig) *Coordinator {
	return &Coordinator{
		store:    st,
		ledger:   led,
		streamer: streamer,
		cfg:      cfg,
		sessions: map[string]*session{},
		byUser:   map[string]*session{},
	}
}

func (c *Coordinator) engineConfig() debate.Config {
	return debate.Config{
		Sequence: debate.SequenceConfig{
			SummaryEvery:         c.cfg.SummaryEvery,
			EscalationEvery:      c.cfg.EscalationEvery,
			StatementContextSize: c.cfg.StatementContextSize,
			SummaryContextSize:   c.cfg.SummaryContextSize,
		},
		TurnPause: c.cfg.TurnPause,
	}
}

func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.expireSessions(ctx, now)
			}
		}
	}()
}

func (c *Coordinator) expireSessions(ctx context.Context, now time.Time) {
	c.mu.Lock()
	var drop []*session
	for _, s := range c.sessions {
		idle := now.Sub(s.lastTouched)
		switch {
		case s.engine.Status() == debate.StatusFinished && idle > finishedSessionGrace:
			drop = append(drop, s)
		case idle > c.cfg.SessionTTL:
			drop = append(drop, s)
		}
	}
	for _, s := range drop {
		delete(c.sessions, s.debateID)
		delete(c.byUser, s.userID)
	}
	c.mu.Unlock()

	for _, s := range drop {
		if s.engine.Status() != debate.StatusFinished {
			log.Info().Str("debate_id", s.debateID).Msg("expiring stale debate session")
			if err := s.engine.Reset(ctx); err != nil {
				log.Warn().Err(err).Str("debate_id", s.debateID).Msg("reset of expired session failed")
			}
		}
		s.buffer.Close()
	}
}

// CreateDebate starts a new session for the user. The roster is built from
// the avatar catalog plus the moderator; starting costs nothing but the
// account must hold at least one credit.
func (c *Coordinator) CreateDebate(ctx context.Context, user *store.User, req CreateDebateRequest) (*CreateDebateResponse, error) {
	if req.Topic == "" {
		return nil, errTopicRequired
	}
	language := req.Language
	if language == "" {
		language = "en"
	}
	if language != "en" && language != "pl" {
		return nil, errUnsupportedLanguage
	}
	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = c.cfg.DefaultMaxRounds
	}
	if user.Credits < 1 {
		return nil, errInsufficientCredits
	}

	c.mu.Lock()
	if existing := c.byUser[user.ID]; existing != nil && existing.engine.Status() != debate.StatusFinished {
		c.mu.Unlock()
		return nil, errDebateAlreadyActive
	}
	c.mu.Unlock()

	roster, err := c.buildRoster(ctx, req.AgentIDs)
	if err != nil {
		return nil, err
	}
	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return nil, err
	}

	debateID, err := c.store.CreateDebate(ctx, store.Debate{
		UserID:     user.ID,
		Topic:      req.Topic,
		Language:   language,
		Status:     string(debate.StatusRunning),
		MaxRounds:  maxRounds,
		RosterJSON: rosterJSON,
	})
	if err != nil {
		return nil, err
	}

	buf := NewEventBuffer(500)
	engine := debate.New(c.engineConfig(), c.streamer,
		storeRecorder{store: c.store, ledger: c.ledger},
		bufferSink{buf: buf, debateID: debateID})

	// The engine outlives the creating request.
	if err := engine.Start(context.Background(), debate.StartParams{
		DebateID:  debateID,
		UserID:    user.ID,
		UserName:  user.Name,
		Topic:     req.Topic,
		Language:  language,
		MaxRounds: maxRounds,
		Roster:    roster,
	}); err != nil {
		buf.Close()
		_ = c.store.UpdateDebateStatus(ctx, debateID, string(debate.StatusFinished))
		return nil, err
	}

	s := &session{debateID: debateID, userID: user.ID, engine: engine, buffer: buf, lastTouched: time.Now()}
	c.mu.Lock()
	c.sessions[debateID] = s
	c.byUser[user.ID] = s
	c.mu.Unlock()

	log.Info().Str("debate_id", debateID).Str("user_id", user.ID).Str("topic", req.Topic).Msg("debate started")
	return &CreateDebateResponse{
		DebateID:  debateID,
		StreamURL: "/api/debates/" + debateID + "/events",
		State:     engine.Snapshot(),
	}, nil
}

func (c *Coordinator) buildRoster(ctx context.Context, agentIDs []string) ([]debate.Agent, error) {
	avatars, err := c.store.ListActiveAvatars(ctx)
	if err != nil {
		return nil, err
	}
	selected := map[string]bool{}
	for _, id := range agentIDs {
		selected[id] = true
	}
	roster := make([]debate.Agent, 0, len(avatars))
	for _, a := range avatars {
		if !a.IsModerator && len(selected) > 0 && !selected[a.ID] {
			continue
		}
		roster = append(roster, debate.Agent{
			ID:          a.ID,
			Name:        a.Name,
			Color:       a.Color,
			Model:       a.Model,
			Persona:     a.Persona,
			Seat:        a.Seat,
			IsModerator: a.IsModerator,
			Active:      a.Active,
		})
	}
	if len(debate.Debaters(roster)) < 2 {
		return nil, debate.ErrRosterTooSmall
	}
	if _, ok := debate.Moderator(roster); !ok {
		return nil, debate.ErrNoModerator
	}
	return roster, nil
}

func (c *Coordinator) sessionFor(debateID, userID string) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sessions[debateID]
	if s == nil || s.userID != userID {
		return nil, errDebateNotFound
	}
	s.lastTouched = time.Now()
	return s, nil
}

func (c *Coordinator) Pause(ctx context.Context, user *store.User, debateID string) error {
	s, err := c.sessionFor(debateID, user.ID)
	if err != nil {
		return err
	}
	return s.engine.Pause(ctx)
}

func (c *Coordinator) Resume(ctx context.Context, user *store.User, debateID string) error {
	s, err := c.sessionFor(debateID, user.ID)
	if err != nil {
		return err
	}
	return s.engine.Resume(ctx)
}

// Reset force-finishes the debate and releases its session.
func (c *Coordinator) Reset(ctx context.Context, user *store.User, debateID string) error {
	s, err := c.sessionFor(debateID, user.ID)
	if err != nil {
		return err
	}
	if err := s.engine.Reset(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.sessions, debateID)
	if c.byUser[user.ID] == s {
		delete(c.byUser, user.ID)
	}
	c.mu.Unlock()
	s.buffer.Close()
	return nil
}

func (c *Coordinator) SetHand(ctx context.Context, user *store.User, debateID string, raised bool) error {
	s, err := c.sessionFor(debateID, user.ID)
	if err != nil {
		return err
	}
	s.engine.RaiseHand(raised)
	return nil
}

func (c *Coordinator) SubmitMessage(ctx context.Context, user *store.User, debateID, content string) (debate.Message, error) {
	s, err := c.sessionFor(debateID, user.ID)
	if err != nil {
		return debate.Message{}, err
	}
	return s.engine.SubmitHuman(ctx, content)
}

// State returns the live snapshot, falling back to the persisted record for
// debates with no in-memory session.
func (c *Coordinator) State(ctx context.Context, user *store.User, debateID string) (*StateResponse, error) {
	credits, err := c.store.GetCredits(ctx, user.ID)
	if err != nil {
		credits = user.Credits
	}
	if s, err := c.sessionFor(debateID, user.ID); err == nil {
		return &StateResponse{Snapshot: s.engine.Snapshot(), CreditsRemaining: credits}, nil
	}
	snap, err := c.persistedSnapshot(ctx, user.ID, debateID)
	if err != nil {
		return nil, err
	}
	return &StateResponse{Snapshot: *snap, CreditsRemaining: credits}, nil
}

// ActiveDebate finds the user's running or paused debate for session
// restore. A persisted debate with no live engine (after a restart) is
// rehydrated in the paused state.
func (c *Coordinator) ActiveDebate(ctx context.Context, user *store.User) (*CreateDebateResponse, error) {
	c.mu.Lock()
	s := c.byUser[user.ID]
	if s != nil && s.engine.Status() != debate.StatusFinished {
		s.lastTouched = time.Now()
		c.mu.Unlock()
		return &CreateDebateResponse{
			DebateID:  s.debateID,
			StreamURL: "/api/debates/" + s.debateID + "/events",
			State:     s.engine.Snapshot(),
		}, nil
	}
	c.mu.Unlock()

	d, err := c.store.GetActiveDebateByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errDebateNotFound
		}
		return nil, err
	}
	return c.rehydrate(ctx, user, d)
}

func (c *Coordinator) rehydrate(ctx context.Context, user *store.User, d *store.Debate) (*CreateDebateResponse, error) {
	var roster []debate.Agent
	if err := json.Unmarshal(d.RosterJSON, &roster); err != nil {
		return nil, err
	}
	stored, err := c.store.ListMessages(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	messages := make([]debate.Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, debate.Message{
			ID:         m.ID,
			AgentID:    m.AgentID,
			AgentName:  m.AgentName,
			AgentColor: m.AgentColor,
			AgentModel: m.AgentModel,
			Content:    m.Content,
			Timestamp:  m.CreatedAt,
			TokensUsed: m.TokensUsed,
			RoundType:  debate.RoundType(m.RoundType),
		})
	}

	buf := NewEventBuffer(500)
	engine := debate.New(c.engineConfig(), c.streamer,
		storeRecorder{store: c.store, ledger: c.ledger},
		bufferSink{buf: buf, debateID: d.ID})
	if err := engine.Restore(debate.StartParams{
		DebateID:  d.ID,
		UserID:    user.ID,
		UserName:  user.Name,
		Topic:     d.Topic,
		Language:  d.Language,
		MaxRounds: d.MaxRounds,
		Roster:    roster,
	}, messages, d.CreditsUsed); err != nil {
		buf.Close()
		return nil, err
	}
	if err := c.store.UpdateDebateStatus(ctx, d.ID, string(debate.StatusPaused)); err != nil {
		log.Warn().Err(err).Str("debate_id", d.ID).Msg("persist paused status on restore failed")
	}

	s := &session{debateID: d.ID, userID: user.ID, engine: engine, buffer: buf, lastTouched: time.Now()}
	c.mu.Lock()
	c.sessions[d.ID] = s
	c.byUser[user.ID] = s
	c.mu.Unlock()

	log.Info().Str("debate_id", d.ID).Str("user_id", user.ID).Msg("debate session restored, paused")
	return &CreateDebateResponse{
		DebateID:  d.ID,
		StreamURL: "/api/debates/" + d.ID + "/events",
		State:     engine.Snapshot(),
	}, nil
}

func (c *Coordinator) persistedSnapshot(ctx context.Context, userID, debateID string) (*debate.Snapshot, error) {
	d, err := c.store.GetDebate(ctx, debateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errDebateNotFound
		}
		return nil, err
	}
	if d.UserID != userID {
		return nil, errDebateNotFound
	}
	var roster []debate.Agent
	_ = json.Unmarshal(d.RosterJSON, &roster)
	stored, err := c.store.ListMessages(ctx, debateID)
	if err != nil {
		return nil, err
	}
	snap := debate.Snapshot{
		DebateID:    d.ID,
		Topic:       d.Topic,
		Language:    d.Language,
		Status:      debate.Status(d.Status),
		RoundCount:  d.RoundCount,
		MaxRounds:   d.MaxRounds,
		CreditsUsed: d.CreditsUsed,
		Roster:      roster,
	}
	for _, m := range stored {
		snap.Messages = append(snap.Messages, debate.Message{
			ID:         m.ID,
			AgentID:    m.AgentID,
			AgentName:  m.AgentName,
			AgentColor: m.AgentColor,
			AgentModel: m.AgentModel,
			Content:    m.Content,
			Timestamp:  m.CreatedAt,
			TokensUsed: m.TokensUsed,
			RoundType:  debate.RoundType(m.RoundType),
		})
	}
	return &snap, nil
}

func (c *Coordinator) getDebateBuffer(debateID string) *EventBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sessions[debateID]
	if s == nil {
		return nil
	}
	return s.buffer
}
