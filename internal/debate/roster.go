package debate

// Debaters returns the active agents that take part in rotation: no
// moderator, no human, no deactivated avatars.
func Debaters(roster []Agent) []Agent {
	out := make([]Agent, 0, len(roster))
	for _, a := range roster {
		if a.Active && !a.IsModerator && !a.IsHuman {
			out = append(out, a)
		}
	}
	return out
}

// Moderator returns the roster's moderator, if present.
func Moderator(roster []Agent) (Agent, bool) {
	for _, a := range roster {
		if a.IsModerator {
			return a, true
		}
	}
	return Agent{}, false
}

// NextSpeaker picks the next speaker. A raised hand hands the turn to the
// human regardless of rotation order. Otherwise rotation is cyclic over the
// active debaters, starting from the one after prevID; with no previous
// speaker the first debater opens.
func NextSpeaker(roster []Agent, prevID string, handRaised bool) (Agent, bool) {
	if handRaised {
		return Agent{}, true
	}
	debaters := Debaters(roster)
	if len(debaters) == 0 {
		return Agent{}, false
	}
	if prevID == "" {
		return debaters[0], false
	}
	for i, a := range debaters {
		if a.ID == prevID {
			return debaters[(i+1)%len(debaters)], false
		}
	}
	// Previous speaker left the rotation (deactivated, moderator, human):
	// restart from the top.
	return debaters[0], false
}
