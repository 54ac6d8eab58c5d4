package debategateway

import (
	"strconv"
	"sync"
	"time"
)

// DebateEvent is one entry in a debate's live event log. Event IDs are
// monotonically increasing per debate so clients can resume with
// Last-Event-ID.
type DebateEvent struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	DebateID string `json:"debate_id"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

// EventBuffer keeps a bounded replay window of debate events and fans new
// ones out to subscribed watchers. Slow watchers drop events rather than
// block the debate.
type EventBuffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []DebateEvent
	watchers map[chan DebateEvent]struct{}
	closed   bool
}

func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = 500
	}
	return &EventBuffer{
		max:      max,
		watchers: map[chan DebateEvent]struct{}{},
	}
}

func (b *EventBuffer) Append(event, debateID string, data any) DebateEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return DebateEvent{}
	}
	b.nextID++
	ev := DebateEvent{
		EventID:  strconv.FormatInt(b.nextID, 10),
		Event:    event,
		DebateID: debateID,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

func (b *EventBuffer) ReplayAfter(lastEventID string) []DebateEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		out := make([]DebateEvent, len(b.events))
		copy(out, b.events)
		return out
	}
	out := make([]DebateEvent, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan DebateEvent {
	ch := make(chan DebateEvent, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan DebateEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}
