package debategateway

// bufferSink feeds engine events into the debate's replay buffer.
// Implements debate.Sink.
type bufferSink struct {
	buf      *EventBuffer
	debateID string
}

func (s bufferSink) Publish(event string, data any) {
	s.buf.Append(event, s.debateID, data)
}
