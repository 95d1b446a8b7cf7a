package syncer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/resolve"
	"eventsync/src-server/ui"
)

type Report struct {
	GuildID    string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Conflicts []model.Conflict
	ByType    map[model.ConflictType]int
	// one per conflict, in detection order; empty for dry runs
	Results   []resolve.Result
	ByOutcome map[resolve.Outcome]int
}

func newReport(guildID string, dryRun bool, startedAt time.Time) *Report {
	return &Report{
		GuildID:   guildID,
		DryRun:    dryRun,
		StartedAt: startedAt,
		ByType:    make(map[model.ConflictType]int),
		ByOutcome: make(map[resolve.Outcome]int),
	}
}

func (r *Report) addConflicts(conflicts []model.Conflict) {
	r.Conflicts = conflicts
	for _, c := range conflicts {
		r.ByType[c.Type]++
	}
}

func (r *Report) addResult(res resolve.Result) {
	r.Results = append(r.Results, res)
	r.ByOutcome[res.Outcome]++
}

func (r *Report) Total() int {
	return len(r.Conflicts)
}

func (r *Report) InSync() bool {
	return len(r.Conflicts) == 0
}

// Failed lists the results that did not apply.
func (r *Report) Failed() []resolve.Result {
	var failed []resolve.Result
	for _, res := range r.Results {
		if res.Outcome == resolve.OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *Report) SyncRun(id string) *model.SyncRun {
	return &model.SyncRun{
		ID:             id,
		GuildID:        r.GuildID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DryRun:         r.DryRun,
		MissingLocal:   r.ByType[model.ConflictMissingLocal],
		MissingDiscord: r.ByType[model.ConflictMissingDiscord],
		Mismatch:       r.ByType[model.ConflictMismatch],
		Skipped:        r.ByOutcome[resolve.OutcomeSkipped],
		AppliedLocal:   r.ByOutcome[resolve.OutcomeAppliedLocal],
		AppliedDiscord: r.ByOutcome[resolve.OutcomeAppliedDiscord],
		Failed:         r.ByOutcome[resolve.OutcomeFailed],
	}
}

func (r *Report) Render(w io.Writer) {
	if r.InSync() {
		fmt.Fprintln(w, ui.StatusSuccess("Local events and Discord are in sync"))
		return
	}

	fmt.Fprintf(w, "\n%s\n", ui.Header("=== Sync Report ==="))
	fmt.Fprintf(w, "Found %d conflict(s):\n", r.Total())
	for _, t := range model.ConflictTypes {
		fmt.Fprintf(w, "  %-16s %d\n", t, r.ByType[t])
	}

	if r.DryRun {
		fmt.Fprintf(w, "\n%s\n", ui.Warning("Dry run, nothing was applied"))
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "%s %s (%s)\n", ui.Dim(ui.SymbolSkipped), c.Title(), c.Type)
			for _, d := range c.Differences {
				fmt.Fprintf(w, "    %s\n", d)
			}
		}
		return
	}

	fmt.Fprintln(w)
	for _, res := range r.Results {
		line := fmt.Sprintf("%s [%s] %s", res.Title, res.Type, res.Decision)
		switch res.Outcome {
		case resolve.OutcomeSkipped:
			fmt.Fprintln(w, ui.StatusSkipped(line))
		case resolve.OutcomeFailed:
			fmt.Fprintln(w, ui.StatusError(line+": "+res.Err.Error()))
		default:
			fmt.Fprintln(w, ui.StatusSuccess(line))
		}
	}

	parts := make([]string, 0, len(resolve.Outcomes))
	for _, o := range resolve.Outcomes {
		parts = append(parts, fmt.Sprintf("%d %s", r.ByOutcome[o], o))
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", "))
}
