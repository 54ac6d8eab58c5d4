package debate

import (
	"fmt"
	"strings"
)

// Prompt construction for the four round types, in the debate's language.
// Kept deliberately plain: persona text carries the character, these frames
// carry the task.

func statementPrompt(a Agent, topic, language string) string {
	if language == "pl" {
		return fmt.Sprintf(
			"Jestes %s, uczestnikiem debaty na temat: %q.\n%s\n"+
				"Odpowiadaj zwiezle (2-4 akapity), po polsku, w formacie markdown. "+
				"Odnos sie do wczesniejszych wypowiedzi innych uczestnikow.",
			a.Name, topic, a.Persona)
	}
	return fmt.Sprintf(
		"You are %s, a participant in a debate on: %q.\n%s\n"+
			"Reply concisely (2-4 paragraphs), in markdown. "+
			"Engage directly with what the other participants said.",
		a.Name, topic, a.Persona)
}

func moderatorPrompt(topic, language string, rt RoundType) string {
	var task string
	switch rt {
	case RoundSummary:
		if language == "pl" {
			task = "Podsumuj dotychczasowy przebieg debaty: glowne argumenty kazdej strony i punkty sporne."
		} else {
			task = "Summarize the debate so far: each side's main arguments and the open points of contention."
		}
	case RoundEscalation:
		if language == "pl" {
			task = "Zaostrz debate: wskaz najslabsze argumenty i zadaj uczestnikom trudne, konfrontacyjne pytania."
		} else {
			task = "Escalate the debate: call out the weakest arguments and pose hard, confrontational questions to the participants."
		}
	default: // final summary
		if language == "pl" {
			task = "Debata dobiegla konca. Przedstaw koncowe podsumowanie: stanowiska, najmocniejsze argumenty i wniosek."
		} else {
			task = "The debate has ended. Deliver a final structured summary: positions, strongest arguments, and a conclusion."
		}
	}
	if language == "pl" {
		return fmt.Sprintf("Jestes moderatorem debaty na temat: %q. %s Odpowiedz po polsku, w formacie markdown.", topic, task)
	}
	return fmt.Sprintf("You are the moderator of a debate on: %q. %s Reply in markdown.", topic, task)
}

// buildContext maps the tail of the transcript into chat messages from the
// speaker's point of view: own past statements become assistant turns,
// everyone else's are attributed user turns. Streaming placeholders are
// skipped.
func buildContext(transcript []Message, speaker Agent, topic, language string, n int) []ChatMessage {
	if n > 0 && len(transcript) > n {
		transcript = transcript[len(transcript)-n:]
	}
	out := make([]ChatMessage, 0, len(transcript)+1)
	for _, m := range transcript {
		if m.IsStreaming || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.AgentID == speaker.ID {
			out = append(out, ChatMessage{Role: "assistant", Content: m.Content})
			continue
		}
		out = append(out, ChatMessage{Role: "user", Content: m.AgentName + ": " + m.Content})
	}
	if len(out) == 0 || out[len(out)-1].Role == "assistant" {
		opener := fmt.Sprintf("The debate topic is: %q. It is your turn to speak.", topic)
		if language == "pl" {
			opener = fmt.Sprintf("Temat debaty: %q. Teraz twoja kolej, aby zabrac glos.", topic)
		}
		out = append(out, ChatMessage{Role: "user", Content: opener})
	}
	return out
}
