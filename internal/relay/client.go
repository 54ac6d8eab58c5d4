package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"debate-arena/internal/debate"
)

// Client consumes the relay endpoint from the outside and turns the SSE
// frames back into stream events. Implements debate.Streamer, so a remote
// relay slots in wherever the in-process provider does.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		// No client-side timeout: the server enforces its own ceiling and
		// a Timeout here would kill long streams.
		HTTPClient: &http.Client{},
	}
}

func (c *Client) StreamChat(ctx context.Context, req debate.ChatRequest) (<-chan debate.StreamEvent, error) {
	body, err := json.Marshal(chatPayload{Model: req.Model, SystemPrompt: req.SystemPrompt, Messages: req.Messages})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if jerr := json.Unmarshal(b, &apiErr); jerr == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("relay returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("relay returned %d", resp.StatusCode)
	}

	ch := make(chan debate.StreamEvent)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		send := func(ev debate.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				send(debate.StreamEvent{Done: true})
				return
			}
			var f frame
			if err := json.Unmarshal([]byte(payload), &f); err != nil {
				continue
			}
			switch {
			case f.Error != "":
				send(debate.StreamEvent{Err: errors.New(f.Error)})
				return
			case f.Usage != nil:
				if !send(debate.StreamEvent{Usage: f.Usage}) {
					return
				}
			case f.Content != "":
				if !send(debate.StreamEvent{Delta: f.Content}) {
					return
				}
			}
		}
		if err := sc.Err(); err != nil {
			send(debate.StreamEvent{Err: err})
		}
	}()
	return ch, nil
}
