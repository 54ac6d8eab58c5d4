package debate

// SequenceConfig is the operator policy for moderator checkpoints and how
// much transcript is fed back as model context.
type SequenceConfig struct {
	SummaryEvery         int
	EscalationEvery      int
	StatementContextSize int
	SummaryContextSize   int
}

func DefaultSequenceConfig() SequenceConfig {
	return SequenceConfig{
		SummaryEvery:         5,
		EscalationEvery:      15,
		StatementContextSize: 12,
		SummaryContextSize:   40,
	}
}

// NextRoundTypes classifies what kind of round(s) come next. Pure function:
// the caller is responsible for not re-executing a checkpoint it already ran
// for the same statement count.
//
// Priority: the max-rounds terminal check wins over any checkpoint; an
// escalation checkpoint always carries its summary first; a summary-only
// checkpoint yields just the summary; otherwise a regular statement.
func NextRoundTypes(statementCount, roundCount, maxRounds int, cfg SequenceConfig) []RoundType {
	if roundCount >= maxRounds {
		return []RoundType{RoundFinalSummary}
	}
	if statementCount > 0 && cfg.EscalationEvery > 0 && statementCount%cfg.EscalationEvery == 0 {
		return []RoundType{RoundSummary, RoundEscalation}
	}
	if statementCount > 0 && cfg.SummaryEvery > 0 && statementCount%cfg.SummaryEvery == 0 {
		return []RoundType{RoundSummary}
	}
	return []RoundType{RoundStatement}
}
