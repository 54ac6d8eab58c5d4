package debate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"debate-arena/internal/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotIdle        = errors.New("debate_already_active")
	ErrNotRunning     = errors.New("debate_not_running")
	ErrNotPaused      = errors.New("debate_not_paused")
	ErrNotUserTurn    = errors.New("not_user_turn")
	ErrEmptyMessage   = errors.New("empty_message")
	ErrRosterTooSmall = errors.New("need_two_agents")
	ErrNoModerator    = errors.New("moderator_missing")

	errTurnAbandoned = errors.New("turn abandoned")
)

// Recorder persists orchestration results. Persistence failures are
// non-fatal to the live session: the in-memory transcript stays
// authoritative.
type Recorder interface {
	AppendMessage(ctx context.Context, debateID string, m Message) error
	UpdateProgress(ctx context.Context, debateID string, roundCount int, creditsUsed int64) error
	UpdateStatus(ctx context.Context, debateID string, status Status) error
	DebitCredits(ctx context.Context, userID, debateID string, amount int64) (int64, error)
}

// Sink receives transcript and lifecycle events for live observers.
type Sink interface {
	Publish(event string, data any)
}

// Event names published to the Sink.
const (
	EventStatusChanged    = "status_changed"
	EventSpeakerChanged   = "speaker_changed"
	EventUserTurn         = "user_turn"
	EventMessageStarted   = "message_started"
	EventMessageDelta     = "message_delta"
	EventMessageCompleted = "message_completed"
	EventDebateError      = "debate_error"
)

type Config struct {
	Sequence  SequenceConfig
	TurnPause time.Duration
}

type StartParams struct {
	DebateID  string
	UserID    string
	UserName  string
	Topic     string
	Language  string
	MaxRounds int
	Roster    []Agent
}

// Snapshot is a point-in-time copy of the session for state handlers.
type Snapshot struct {
	DebateID       string    `json:"debate_id"`
	Topic          string    `json:"topic"`
	Language       string    `json:"language"`
	Status         Status    `json:"status"`
	RoundCount     int       `json:"round_count"`
	StatementCount int       `json:"statement_count"`
	MaxRounds      int       `json:"max_rounds"`
	CreditsUsed    int64     `json:"credits_used"`
	HandRaised     bool      `json:"hand_raised"`
	IsUserTurn     bool      `json:"is_user_turn"`
	CurrentSpeaker string    `json:"current_speaker"`
	Roster         []Agent   `json:"roster"`
	Messages       []Message `json:"messages"`
}

// Engine drives one debate session from start to finish. Session state is
// owned here exclusively and mutated only through the exported transitions;
// the turn loop runs on its own goroutine while status is running.
type Engine struct {
	cfg      Config
	streamer Streamer
	rec      Recorder
	sink     Sink

	mu             sync.Mutex
	status         Status
	debateID       string
	userID         string
	userName       string
	topic          string
	language       string
	maxRounds      int
	roster         []Agent
	messages       []Message
	roundCount     int
	statementCount int
	creditsUsed    int64
	handRaised     bool
	isUserTurn     bool
	currentSpeaker string
	lastSpeakerID  string
	lastCheckpoint int
	loopActive     bool

	// turnGen invalidates in-flight stream chunks: pause and reset bump it,
	// and chunks carrying a stale generation are discarded.
	turnGen    int
	cancelTurn context.CancelFunc
	runCtx     context.Context
}

func New(cfg Config, streamer Streamer, rec Recorder, sink Sink) *Engine {
	if cfg.Sequence.SummaryEvery == 0 {
		cfg.Sequence = DefaultSequenceConfig()
	}
	if cfg.TurnPause <= 0 {
		cfg.TurnPause = 2 * time.Second
	}
	return &Engine{cfg: cfg, streamer: streamer, rec: rec, sink: sink, status: StatusIdle}
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := make([]Message, len(e.messages))
	copy(msgs, e.messages)
	return Snapshot{
		DebateID:       e.debateID,
		Topic:          e.topic,
		Language:       e.language,
		Status:         e.status,
		RoundCount:     e.roundCount,
		StatementCount: e.statementCount,
		MaxRounds:      e.maxRounds,
		CreditsUsed:    e.creditsUsed,
		HandRaised:     e.handRaised,
		IsUserTurn:     e.isUserTurn,
		CurrentSpeaker: e.currentSpeaker,
		Roster:         append([]Agent(nil), e.roster...),
		Messages:       msgs,
	}
}

// Start transitions idle -> running and launches the turn loop. The roster
// must contain a moderator and at least two active debaters.
func (e *Engine) Start(ctx context.Context, p StartParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusIdle {
		return ErrNotIdle
	}
	if len(Debaters(p.Roster)) < 2 {
		return ErrRosterTooSmall
	}
	if _, ok := Moderator(p.Roster); !ok {
		return ErrNoModerator
	}
	if p.MaxRounds < 1 {
		p.MaxRounds = 1
	}
	e.debateID = p.DebateID
	e.userID = p.UserID
	e.userName = p.UserName
	e.topic = p.Topic
	e.language = p.Language
	e.maxRounds = p.MaxRounds
	e.roster = append([]Agent(nil), p.Roster...)
	e.messages = nil
	e.roundCount = 0
	e.statementCount = 0
	e.creditsUsed = 0
	e.handRaised = false
	e.isUserTurn = false
	e.currentSpeaker = ""
	e.lastSpeakerID = ""
	e.lastCheckpoint = 0
	e.status = StatusRunning
	e.runCtx = ctx
	e.sink.Publish(EventStatusChanged, map[string]any{"status": StatusRunning})
	go e.run(ctx)
	return nil
}

// Restore loads a persisted session into an idle engine, paused. Round and
// checkpoint counters are rebuilt from the transcript so a later Resume
// picks up exactly where the persisted debate left off.
func (e *Engine) Restore(p StartParams, messages []Message, creditsUsed int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusIdle {
		return ErrNotIdle
	}
	if len(Debaters(p.Roster)) < 2 {
		return ErrRosterTooSmall
	}
	if _, ok := Moderator(p.Roster); !ok {
		return ErrNoModerator
	}
	if p.MaxRounds < 1 {
		p.MaxRounds = 1
	}
	e.debateID = p.DebateID
	e.userID = p.UserID
	e.userName = p.UserName
	e.topic = p.Topic
	e.language = p.Language
	e.maxRounds = p.MaxRounds
	e.roster = append([]Agent(nil), p.Roster...)
	e.messages = append([]Message(nil), messages...)
	e.creditsUsed = creditsUsed
	e.roundCount = 0
	e.statementCount = 0
	e.lastSpeakerID = ""
	e.lastCheckpoint = 0
	for _, m := range e.messages {
		switch {
		case m.AgentID == ModeratorID:
		case m.AgentID == HumanID:
			e.roundCount++
			e.lastSpeakerID = m.AgentID
		default:
			e.roundCount++
			e.statementCount++
			e.lastSpeakerID = m.AgentID
		}
	}
	// If the transcript already ends in a moderator checkpoint, do not run
	// it again for the same statement count on resume.
	if n := len(e.messages); n > 0 {
		if rt := e.messages[n-1].RoundType; rt == RoundSummary || rt == RoundEscalation {
			e.lastCheckpoint = e.statementCount
		}
	}
	e.handRaised = false
	e.isUserTurn = false
	e.currentSpeaker = ""
	e.status = StatusPaused
	return nil
}

// Pause suspends turn scheduling, aborts any in-flight stream and persists
// the paused status before returning.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return ErrNotRunning
	}
	e.status = StatusPaused
	e.turnGen++
	cancel := e.cancelTurn
	e.cancelTurn = nil
	e.currentSpeaker = ""
	for len(e.messages) > 0 && e.messages[len(e.messages)-1].IsStreaming {
		e.messages = e.messages[:len(e.messages)-1]
	}
	id := e.debateID
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := e.rec.UpdateStatus(ctx, id, StatusPaused); err != nil {
		log.Warn().Err(err).Str("debate_id", id).Msg("persist paused status failed")
	}
	e.sink.Publish(EventSpeakerChanged, map[string]any{"agent_id": ""})
	e.sink.Publish(EventStatusChanged, map[string]any{"status": StatusPaused})
	return nil
}

func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	if e.status != StatusPaused {
		e.mu.Unlock()
		return ErrNotPaused
	}
	e.status = StatusRunning
	e.runCtx = ctx
	id := e.debateID
	e.mu.Unlock()

	if err := e.rec.UpdateStatus(ctx, id, StatusRunning); err != nil {
		log.Warn().Err(err).Str("debate_id", id).Msg("persist running status failed")
	}
	e.sink.Publish(EventStatusChanged, map[string]any{"status": StatusRunning})
	go e.run(ctx)
	return nil
}

// Reset force-finishes the persisted record and clears all in-memory state
// back to idle. Any in-flight stream is aborted and late chunks discarded.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	cancel := e.cancelTurn
	e.cancelTurn = nil
	e.turnGen++
	id := e.debateID
	e.status = StatusIdle
	e.debateID = ""
	e.messages = nil
	e.roster = nil
	e.roundCount = 0
	e.statementCount = 0
	e.creditsUsed = 0
	e.handRaised = false
	e.isUserTurn = false
	e.currentSpeaker = ""
	e.lastSpeakerID = ""
	e.lastCheckpoint = 0
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if id != "" {
		if err := e.rec.UpdateStatus(ctx, id, StatusFinished); err != nil {
			log.Warn().Err(err).Str("debate_id", id).Msg("persist finished status on reset failed")
		}
	}
	e.sink.Publish(EventStatusChanged, map[string]any{"status": StatusIdle})
	return nil
}

// RaiseHand signals that the human wants the next turn. The override is
// consumed (and the flag cleared) when the human submits.
func (e *Engine) RaiseHand(raised bool) {
	e.mu.Lock()
	e.handRaised = raised
	e.mu.Unlock()
}

// SubmitHuman records the human's utterance as a zero-token message and
// resumes automatic turn-taking after the inter-speaker pause.
func (e *Engine) SubmitHuman(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return Message{}, ErrNotRunning
	}
	if !e.isUserTurn {
		e.mu.Unlock()
		return Message{}, ErrNotUserTurn
	}
	human := e.humanAgentLocked()
	m := Message{
		ID:         store.NewID(),
		AgentID:    human.ID,
		AgentName:  human.Name,
		AgentColor: human.Color,
		AgentModel: human.Model,
		Content:    text,
		Timestamp:  time.Now(),
		RoundType:  RoundStatement,
	}
	e.messages = append(e.messages, m)
	e.roundCount++
	e.isUserTurn = false
	e.handRaised = false
	e.currentSpeaker = ""
	e.lastSpeakerID = human.ID
	id := e.debateID
	rc := e.roundCount
	cu := e.creditsUsed
	runCtx := e.runCtx
	e.mu.Unlock()

	e.sink.Publish(EventMessageCompleted, m)
	e.sink.Publish(EventSpeakerChanged, map[string]any{"agent_id": ""})
	e.persist(ctx, id, m, rc, cu)

	go func() {
		if e.sleepPause(runCtx) {
			e.run(runCtx)
		}
	}()
	return m, nil
}

func (e *Engine) run(ctx context.Context) {
	e.mu.Lock()
	if e.loopActive {
		e.mu.Unlock()
		return
	}
	e.loopActive = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.loopActive = false
		// A concurrent restart may have lost the loopActive gate to this
		// exiting loop; hand the session a fresh one.
		relaunch := e.status == StatusRunning && !e.isUserTurn && ctx.Err() == nil
		runCtx := e.runCtx
		e.mu.Unlock()
		if relaunch {
			go e.run(runCtx)
		}
	}()

	for {
		e.mu.Lock()
		if e.status != StatusRunning || ctx.Err() != nil || e.isUserTurn {
			e.mu.Unlock()
			return
		}
		if e.roundCount >= e.maxRounds {
			e.mu.Unlock()
			e.finalSummary(ctx)
			return
		}
		types := NextRoundTypes(e.statementCount, e.roundCount, e.maxRounds, e.cfg.Sequence)
		if types[0] != RoundStatement && e.lastCheckpoint != e.statementCount {
			e.lastCheckpoint = e.statementCount
			mod, _ := Moderator(e.roster)
			e.mu.Unlock()
			for _, rt := range types {
				if err := e.speak(ctx, mod, rt); err != nil {
					e.pauseOnTurnError(ctx, err)
					return
				}
			}
			if !e.sleepPause(ctx) {
				return
			}
			continue
		}
		speaker, humanTurn := NextSpeaker(e.roster, e.lastSpeakerID, e.handRaised)
		if humanTurn {
			e.isUserTurn = true
			human := e.humanAgentLocked()
			e.currentSpeaker = human.ID
			e.mu.Unlock()
			e.sink.Publish(EventSpeakerChanged, map[string]any{"agent_id": human.ID})
			e.sink.Publish(EventUserTurn, human)
			return
		}
		if speaker.ID == "" {
			e.mu.Unlock()
			e.pauseOnTurnError(ctx, errors.New("no active debaters in roster"))
			return
		}
		e.mu.Unlock()
		if err := e.speak(ctx, speaker, RoundStatement); err != nil {
			e.pauseOnTurnError(ctx, err)
			return
		}
		e.mu.Lock()
		reachedMax := e.roundCount >= e.maxRounds
		e.mu.Unlock()
		if reachedMax {
			// Skip the inter-speaker pause: the final summary follows
			// immediately once the round budget is exhausted.
			continue
		}
		if !e.sleepPause(ctx) {
			return
		}
	}
}

// speak executes one streamed turn for the given speaker and round type.
func (e *Engine) speak(ctx context.Context, speaker Agent, rt RoundType) error {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.turnGen++
	gen := e.turnGen
	e.cancelTurn = cancel
	e.currentSpeaker = speaker.ID
	msg := Message{
		ID:          store.NewID(),
		AgentID:     speaker.ID,
		AgentName:   speaker.Name,
		AgentColor:  speaker.Color,
		AgentModel:  speaker.Model,
		Timestamp:   time.Now(),
		IsStreaming: true,
		RoundType:   rt,
	}
	e.messages = append(e.messages, msg)
	if !speaker.IsModerator {
		e.lastSpeakerID = speaker.ID
	}
	var sysPrompt string
	var ctxSize int
	if speaker.IsModerator {
		sysPrompt = moderatorPrompt(e.topic, e.language, rt)
		ctxSize = e.cfg.Sequence.SummaryContextSize
	} else {
		sysPrompt = statementPrompt(speaker, e.topic, e.language)
		ctxSize = e.cfg.Sequence.StatementContextSize
	}
	history := buildContext(e.messages[:len(e.messages)-1], speaker, e.topic, e.language, ctxSize)
	req := ChatRequest{Model: speaker.Model, SystemPrompt: sysPrompt, Messages: history}
	e.mu.Unlock()

	e.sink.Publish(EventSpeakerChanged, map[string]any{"agent_id": speaker.ID})
	e.sink.Publish(EventMessageStarted, msg)

	events, err := e.streamer.StreamChat(turnCtx, req)
	if err != nil {
		e.dropStreamingMessage(gen, msg.ID)
		return err
	}

	var content strings.Builder
	var usage Usage
	var streamErr error
	for ev := range events {
		switch {
		case ev.Err != nil:
			streamErr = ev.Err
		case ev.Usage != nil:
			usage = *ev.Usage
		case ev.Done:
		case ev.Delta != "":
			if !e.applyDelta(gen, msg.ID, ev.Delta) {
				return errTurnAbandoned
			}
			content.WriteString(ev.Delta)
		}
	}
	if streamErr != nil && content.Len() == 0 {
		e.dropStreamingMessage(gen, msg.ID)
		return streamErr
	}
	if !e.finalizeTurn(ctx, gen, msg.ID, speaker, rt, content.String(), usage) {
		return errTurnAbandoned
	}
	return streamErr
}

// applyDelta merges one chunk into the streaming message. Returns false when
// the turn was abandoned (pause/reset bumped the generation) and the chunk
// must be discarded.
func (e *Engine) applyDelta(gen int, messageID, delta string) bool {
	e.mu.Lock()
	if gen != e.turnGen {
		e.mu.Unlock()
		return false
	}
	for i := len(e.messages) - 1; i >= 0; i-- {
		if e.messages[i].ID == messageID {
			e.messages[i].Content += delta
			break
		}
	}
	e.mu.Unlock()
	e.sink.Publish(EventMessageDelta, map[string]any{"message_id": messageID, "delta": delta})
	return true
}

func (e *Engine) dropStreamingMessage(gen int, messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.turnGen {
		return
	}
	for i := len(e.messages) - 1; i >= 0; i-- {
		if e.messages[i].ID == messageID && e.messages[i].IsStreaming {
			e.messages = append(e.messages[:i], e.messages[i+1:]...)
			return
		}
	}
}

// finalizeTurn freezes the streamed content, applies round and credit
// accounting and persists the message. Returns false for abandoned turns.
func (e *Engine) finalizeTurn(ctx context.Context, gen int, messageID string, speaker Agent, rt RoundType, content string, usage Usage) bool {
	e.mu.Lock()
	if gen != e.turnGen {
		e.mu.Unlock()
		return false
	}
	var final Message
	for i := range e.messages {
		if e.messages[i].ID == messageID {
			e.messages[i].Content = content
			e.messages[i].TokensUsed = usage.TotalTokens
			e.messages[i].IsStreaming = false
			final = e.messages[i]
			break
		}
	}
	credits := TokensToCredits(usage.TotalTokens)
	e.creditsUsed += credits
	if rt == RoundStatement && !speaker.IsModerator && !speaker.IsHuman {
		e.roundCount++
		e.statementCount++
	}
	id := e.debateID
	userID := e.userID
	rc := e.roundCount
	cu := e.creditsUsed
	e.mu.Unlock()

	e.sink.Publish(EventMessageCompleted, final)
	e.persist(ctx, id, final, rc, cu)
	if credits > 0 {
		// Best effort: a failed debit never blocks turn progression.
		if _, err := e.rec.DebitCredits(ctx, userID, id, credits); err != nil {
			log.Error().Err(err).Str("debate_id", id).Int64("credits", credits).Msg("credit debit failed")
		}
	}
	return true
}

func (e *Engine) finalSummary(ctx context.Context) {
	e.mu.Lock()
	mod, ok := Moderator(e.roster)
	id := e.debateID
	e.mu.Unlock()

	if ok {
		if err := e.speak(ctx, mod, RoundFinalSummary); err != nil && !errors.Is(err, errTurnAbandoned) {
			log.Error().Err(err).Str("debate_id", id).Msg("final summary failed, finishing anyway")
			e.sink.Publish(EventDebateError, map[string]any{"error": "final_summary_failed"})
		}
	}

	e.mu.Lock()
	if e.status == StatusIdle {
		// Reset won while the summary streamed; nothing left to finish.
		e.mu.Unlock()
		return
	}
	e.status = StatusFinished
	e.cancelTurn = nil
	e.currentSpeaker = ""
	e.mu.Unlock()

	if err := e.rec.UpdateStatus(ctx, id, StatusFinished); err != nil {
		log.Warn().Err(err).Str("debate_id", id).Msg("persist finished status failed")
	}
	e.sink.Publish(EventSpeakerChanged, map[string]any{"agent_id": ""})
	e.sink.Publish(EventStatusChanged, map[string]any{"status": StatusFinished})
}

// pauseOnTurnError moves a running session to paused after a failed turn.
// Abandoned turns were already handled by the pause/reset that killed them.
func (e *Engine) pauseOnTurnError(ctx context.Context, err error) {
	if errors.Is(err, errTurnAbandoned) || errors.Is(err, context.Canceled) {
		return
	}
	e.mu.Lock()
	if e.status != StatusRunning {
		e.mu.Unlock()
		return
	}
	e.status = StatusPaused
	e.turnGen++
	e.cancelTurn = nil
	e.currentSpeaker = ""
	id := e.debateID
	e.mu.Unlock()

	log.Error().Err(err).Str("debate_id", id).Msg("turn failed, pausing debate")
	if rerr := e.rec.UpdateStatus(ctx, id, StatusPaused); rerr != nil {
		log.Warn().Err(rerr).Str("debate_id", id).Msg("persist paused status failed")
	}
	e.sink.Publish(EventDebateError, map[string]any{"error": "turn_failed"})
	e.sink.Publish(EventSpeakerChanged, map[string]any{"agent_id": ""})
	e.sink.Publish(EventStatusChanged, map[string]any{"status": StatusPaused})
}

func (e *Engine) persist(ctx context.Context, debateID string, m Message, roundCount int, creditsUsed int64) {
	if debateID == "" {
		return
	}
	if err := e.rec.AppendMessage(ctx, debateID, m); err != nil {
		log.Warn().Err(err).Str("debate_id", debateID).Str("message_id", m.ID).Msg("persist message failed")
	}
	if err := e.rec.UpdateProgress(ctx, debateID, roundCount, creditsUsed); err != nil {
		log.Warn().Err(err).Str("debate_id", debateID).Msg("persist progress failed")
	}
}

// sleepPause waits out the inter-speaker pause. Returns false when the
// session stopped running in the meantime.
func (e *Engine) sleepPause(ctx context.Context) bool {
	t := time.NewTimer(e.cfg.TurnPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	}
	e.mu.Lock()
	ok := e.status == StatusRunning
	e.mu.Unlock()
	return ok
}

func (e *Engine) humanAgentLocked() Agent {
	name := e.userName
	if name == "" {
		name = "You"
	}
	return Agent{ID: HumanID, Name: name, Color: "#f0c040", Model: HumanModel, IsHuman: true, Active: true}
}
