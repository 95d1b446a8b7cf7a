// Package decision supplies the keep_local / keep_discord / skip choice for
// each detected conflict.
package decision

import (
	"context"
	"fmt"
	"io"

	"eventsync/src-server/model"
)

// Decider maps conflict keys to decisions. Conflicts missing from the
// returned map are skipped.
type Decider interface {
	Decide(ctx context.Context, conflicts []model.Conflict) (map[string]model.Decision, error)
}

const ModePrompt = "prompt"

// Policy applies one decision to every conflict it is valid for and skips
// the rest.
type Policy struct {
	Decision model.Decision
}

func (p Policy) Decide(ctx context.Context, conflicts []model.Conflict) (map[string]model.Decision, error) {
	decisions := make(map[string]model.Decision, len(conflicts))
	for i := range conflicts {
		d := p.Decision
		if !d.Allows(conflicts[i].Type) {
			d = model.DecisionSkip
		}
		decisions[conflicts[i].Key()] = d
	}
	return decisions, nil
}

// FromMode builds the decider for a --decision value: empty or "prompt"
// asks on in/out, anything else must be a decision applied as a policy.
func FromMode(mode string, in io.Reader, out io.Writer) (Decider, error) {
	if mode == "" || mode == ModePrompt {
		return NewPrompt(in, out), nil
	}
	d, ok := model.ParseDecision(mode)
	if !ok {
		return nil, fmt.Errorf("FromMode: unknown decision %q, want %s, %s, %s or %s",
			mode, ModePrompt, model.DecisionKeepLocal, model.DecisionKeepDiscord, model.DecisionSkip)
	}
	return Policy{Decision: d}, nil
}
