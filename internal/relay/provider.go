package relay

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"debate-arena/internal/debate"
)

// Provider streams chat completions from an OpenAI-compatible endpoint.
// Implements debate.Streamer.
type Provider struct {
	client     *openai.Client
	maxRetries int
}

func NewProvider(apiKey, baseURL string, maxRetries int) *Provider {
	cc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cc.BaseURL = baseURL
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Provider{client: openai.NewClientWithConfig(cc), maxRetries: maxRetries}
}

func (p *Provider) StreamChat(ctx context.Context, req debate.ChatRequest) (<-chan debate.StreamEvent, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	ccr := openai.ChatCompletionRequest{
		Model:         req.Model,
		Messages:      msgs,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}

	stream, err := p.openStream(ctx, ccr)
	if err != nil {
		return nil, err
	}

	ch := make(chan debate.StreamEvent)
	go func() {
		defer close(ch)
		defer stream.Close()
		send := func(ev debate.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			resp, rerr := stream.Recv()
			if errors.Is(rerr, io.EOF) {
				send(debate.StreamEvent{Done: true})
				return
			}
			if rerr != nil {
				log.Warn().Err(rerr).Str("model", req.Model).Msg("chat stream broke mid-flight")
				send(debate.StreamEvent{Err: rerr})
				return
			}
			if resp.Usage != nil {
				u := debate.Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				}
				if resp.Usage.CompletionTokensDetails != nil {
					u.ReasoningTokens = resp.Usage.CompletionTokensDetails.ReasoningTokens
				}
				if !send(debate.StreamEvent{Usage: &u}) {
					return
				}
				continue
			}
			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				if !send(debate.StreamEvent{Delta: resp.Choices[0].Delta.Content}) {
					return
				}
			}
		}
	}()
	return ch, nil
}

// openStream retries stream establishment with exponential backoff. Only
// the opening call is retried.
func (p *Provider) openStream(ctx context.Context, ccr openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		stream, err := p.client.CreateChatCompletionStream(ctx, ccr)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		if !retryable(err) || attempt == p.maxRetries {
			break
		}
		wait := time.Duration(1<<attempt) * time.Second
		log.Debug().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Msg("chat stream open failed, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
