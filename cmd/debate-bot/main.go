// Command debate-bot starts a debate over the HTTP API and follows its
// event stream, printing the transcript as it unfolds.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"debate-arena/internal/config"

	"github.com/joho/godotenv"
)

type createResponse struct {
	DebateID  string `json:"debate_id"`
	StreamURL string `json:"stream_url"`
}

type debateEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type messagePayload struct {
	AgentName string `json:"agent_name"`
	Content   string `json:"content"`
	RoundType string `json:"round_type"`
}

type statusPayload struct {
	Status string `json:"status"`
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.APIKey == "" {
		log.Fatal("API_KEY is required")
	}

	debateID, streamURL, err := createDebate(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("debate %s started: %q", debateID, cfg.Topic)

	if err := follow(cfg, streamURL); err != nil {
		log.Fatal(err)
	}
}

func createDebate(cfg config.BotConfig) (string, string, error) {
	body, _ := json.Marshal(map[string]any{
		"topic":      cfg.Topic,
		"language":   cfg.Language,
		"max_rounds": cfg.MaxRounds,
	})
	req, err := http.NewRequest(http.MethodPost, cfg.ServerURL+"/api/debates", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", "", fmt.Errorf("create debate: %d %s", resp.StatusCode, apiErr.Error)
	}
	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", "", err
	}
	return created.DebateID, created.StreamURL, nil
}

func follow(cfg config.BotConfig, streamURL string) error {
	req, err := http.NewRequest(http.MethodGet, cfg.ServerURL+streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream: %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev debateEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		switch ev.Event {
		case "message_completed":
			var m messagePayload
			if err := json.Unmarshal(ev.Data, &m); err != nil {
				continue
			}
			fmt.Printf("\n[%s] %s:\n%s\n", m.RoundType, m.AgentName, m.Content)
		case "debate_error":
			log.Printf("debate error: %s", ev.Data)
		case "status_changed":
			var s statusPayload
			if err := json.Unmarshal(ev.Data, &s); err != nil {
				continue
			}
			log.Printf("status: %s", s.Status)
			if s.Status == "finished" {
				return nil
			}
		}
	}
	return sc.Err()
}
