package model

type ConflictType string

const (
	// on Discord, not in the local collection
	ConflictMissingLocal ConflictType = "missing_local"
	// in the local collection, not on Discord
	ConflictMissingDiscord ConflictType = "missing_discord"
	// on both sides with differing fields
	ConflictMismatch ConflictType = "mismatch"
)

var ConflictTypes = []ConflictType{ConflictMissingLocal, ConflictMissingDiscord, ConflictMismatch}

// Conflict is one disagreement between the two collections for a join key.
// missing_local carries only DiscordEvent, missing_discord only LocalEvent,
// mismatch carries both and a non-empty Differences list.
type Conflict struct {
	Type         ConflictType
	LocalEvent   *LocalEvent
	DiscordEvent *ExternalEvent
	Differences  []string
}

// Key identifies the conflict to a decision collaborator.
func (c *Conflict) Key() string {
	if c.LocalEvent != nil {
		return c.LocalEvent.ID
	}
	if c.DiscordEvent != nil {
		return c.DiscordEvent.ID
	}
	return ""
}

// Title is a display name taken from whichever side is present.
func (c *Conflict) Title() string {
	if c.LocalEvent != nil {
		return c.LocalEvent.Title
	}
	if c.DiscordEvent != nil {
		return c.DiscordEvent.Name
	}
	return ""
}

type Decision string

const (
	DecisionKeepLocal   Decision = "keep_local"
	DecisionKeepDiscord Decision = "keep_discord"
	DecisionSkip        Decision = "skip"
)

func ParseDecision(s string) (Decision, bool) {
	switch d := Decision(s); d {
	case DecisionKeepLocal, DecisionKeepDiscord, DecisionSkip:
		return d, true
	}
	return "", false
}

// Allows reports whether the decision has a defined action for the conflict
// type. There is nothing local to push for missing_local, nothing on Discord
// to pull for missing_discord.
func (d Decision) Allows(t ConflictType) bool {
	switch {
	case d == DecisionKeepLocal && t == ConflictMissingLocal:
		return false
	case d == DecisionKeepDiscord && t == ConflictMissingDiscord:
		return false
	}
	return true
}
