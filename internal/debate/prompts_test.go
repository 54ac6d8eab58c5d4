package debate

import (
	"strings"
	"testing"
)

func TestBuildContextRoles(t *testing.T) {
	speaker := Agent{ID: "a1", Name: "Alpha"}
	transcript := []Message{
		{AgentID: "a2", AgentName: "Beta", Content: "opening claim"},
		{AgentID: "a1", AgentName: "Alpha", Content: "my rebuttal"},
		{AgentID: "a2", AgentName: "Beta", Content: "counter"},
	}
	got := buildContext(transcript, speaker, "cats", "en", 12)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[0].Role != "user" || got[0].Content != "Beta: opening claim" {
		t.Fatalf("foreign turn not attributed: %+v", got[0])
	}
	if got[1].Role != "assistant" || got[1].Content != "my rebuttal" {
		t.Fatalf("own turn not assistant: %+v", got[1])
	}
}

func TestBuildContextSkipsStreamingAndEmpty(t *testing.T) {
	speaker := Agent{ID: "a1", Name: "Alpha"}
	transcript := []Message{
		{AgentID: "a2", AgentName: "Beta", Content: "kept"},
		{AgentID: "a2", AgentName: "Beta", Content: "half-done", IsStreaming: true},
		{AgentID: "a2", AgentName: "Beta", Content: "   "},
	}
	got := buildContext(transcript, speaker, "cats", "en", 12)
	if len(got) != 1 || got[0].Content != "Beta: kept" {
		t.Fatalf("got %+v", got)
	}
}

func TestBuildContextTailWindow(t *testing.T) {
	speaker := Agent{ID: "a1", Name: "Alpha"}
	var transcript []Message
	for i := 0; i < 20; i++ {
		transcript = append(transcript, Message{AgentID: "a2", AgentName: "Beta", Content: strings.Repeat("x", i+1)})
	}
	got := buildContext(transcript, speaker, "cats", "en", 3)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want tail of 3", len(got))
	}
	if got[0].Content != "Beta: "+strings.Repeat("x", 18) {
		t.Fatalf("wrong tail start: %q", got[0].Content)
	}
}

func TestBuildContextAppendsOpener(t *testing.T) {
	speaker := Agent{ID: "a1", Name: "Alpha"}
	got := buildContext(nil, speaker, "cats", "en", 12)
	if len(got) != 1 || got[0].Role != "user" || !strings.Contains(got[0].Content, "cats") {
		t.Fatalf("empty transcript must yield an opener: %+v", got)
	}
	// A transcript ending with the speaker's own turn also needs a user turn
	// appended, chat completions reject a trailing assistant message.
	transcript := []Message{{AgentID: "a1", AgentName: "Alpha", Content: "last word"}}
	got = buildContext(transcript, speaker, "cats", "en", 12)
	if got[len(got)-1].Role != "user" {
		t.Fatalf("trailing turn must be a user turn: %+v", got)
	}
}

func TestPromptsFollowLanguage(t *testing.T) {
	a := Agent{ID: "a1", Name: "Alpha", Persona: "a skeptic"}
	if !strings.Contains(statementPrompt(a, "cats", "pl"), "po polsku") {
		t.Fatal("polish statement prompt missing language directive")
	}
	if !strings.Contains(statementPrompt(a, "cats", "en"), "markdown") {
		t.Fatal("english statement prompt missing format directive")
	}
	for _, rt := range []RoundType{RoundSummary, RoundEscalation, RoundFinalSummary} {
		if moderatorPrompt("cats", "en", rt) == "" || moderatorPrompt("cats", "pl", rt) == "" {
			t.Fatalf("empty moderator prompt for %s", rt)
		}
	}
	if moderatorPrompt("cats", "en", RoundSummary) == moderatorPrompt("cats", "en", RoundEscalation) {
		t.Fatal("summary and escalation prompts must differ")
	}
}
