package debate

// TokensToCredits converts token usage to billed credits: one credit per
// started thousand tokens.
func TokensToCredits(tokens int) int64 {
	if tokens <= 0 {
		return 0
	}
	return int64((tokens + 999) / 1000)
}
