package syncer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"eventsync/src-server/decision"
	"eventsync/src-server/discord/discordtest"
	"eventsync/src-server/model"
	"eventsync/src-server/resolve"
	"eventsync/src-server/syncer"
	"eventsync/src-server/transform"
	"eventsync/src-server/ui"
)

func init() {
	ui.DisableColors()
}

var start = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

type memoryStore struct {
	events   []model.LocalEvent
	loads    int
	flushes  int
	loadErr  error
	flushErr error
}

func (s *memoryStore) Load(ctx context.Context) ([]model.LocalEvent, error) {
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]model.LocalEvent(nil), s.events...), nil
}

func (s *memoryStore) Flush(ctx context.Context, events []model.LocalEvent) error {
	s.flushes++
	if s.flushErr != nil {
		return s.flushErr
	}
	s.events = append([]model.LocalEvent(nil), events...)
	return nil
}

type recorder struct {
	runs     []*model.SyncRun
	dbOps    []string
	observed int
}

func (r *recorder) RecordRun(ctx context.Context, run *model.SyncRun) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *recorder) ObserveDatabase(op string, d time.Duration) {
	r.dbOps = append(r.dbOps, op)
}

func (r *recorder) ObserveRun(run *model.SyncRun) {
	r.observed++
}

// byKey answers from a fixed map, leaving other keys undecided.
type byKey map[string]model.Decision

func (b byKey) Decide(ctx context.Context, conflicts []model.Conflict) (map[string]model.Decision, error) {
	return b, nil
}

func localEvent(id, title string) model.LocalEvent {
	return model.LocalEvent{
		ID:              id,
		Title:           title,
		Type:            model.EventTypeOther,
		Date:            "2025-03-10",
		Time:            "18:00",
		Timezone:        "UTC",
		DurationMinutes: 90,
	}
}

func externalEvent(id, name string) model.ExternalEvent {
	end := start.Add(90 * time.Minute)
	return model.ExternalEvent{ID: id, GuildID: "g", Name: name, ScheduledStart: start, ScheduledEnd: &end}
}

func newOrchestrator(guild *discordtest.Memory, st *memoryStore, decider decision.Decider) *syncer.Orchestrator {
	tr := transform.New(time.UTC)
	return syncer.New(guild, st, decider, tr, "g")
}

func mixedFixture() (*discordtest.Memory, *memoryStore) {
	guild := discordtest.NewMemory(externalEvent("discordOnly", "From Discord"), externalEvent("shared", "Discord title"))
	st := &memoryStore{events: []model.LocalEvent{localEvent("localOnly", "From local"), localEvent("shared", "Local title")}}
	return guild, st
}

func TestRunMixed(t *testing.T) {
	guild, st := mixedFixture()
	rec := &recorder{}
	decider := byKey{
		"discordOnly": model.DecisionKeepDiscord,
		"localOnly":   model.DecisionKeepLocal,
		// "shared" is left undecided
	}

	report, err := newOrchestrator(guild, st, decider).WithRunRecorder(rec).WithMetrics(rec).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Total() != 3 || report.ByType[model.ConflictMismatch] != 1 || report.ByType[model.ConflictMissingLocal] != 1 {
		t.Errorf("by type = %v", report.ByType)
	}
	wantOutcomes := []resolve.Outcome{resolve.OutcomeAppliedDiscord, resolve.OutcomeAppliedLocal, resolve.OutcomeSkipped}
	for i, want := range wantOutcomes {
		if report.Results[i].Outcome != want {
			t.Errorf("result %d = %+v, want %s", i, report.Results[i], want)
		}
	}
	if report.Results[2].Decision != model.DecisionSkip {
		t.Errorf("undecided conflict should be skipped: %+v", report.Results[2])
	}

	if st.loads != 1 || st.flushes != 1 {
		t.Errorf("loads=%d flushes=%d", st.loads, st.flushes)
	}
	if len(st.events) != 3 || st.events[0].ExternalID != "1000" || st.events[2].ID != "discordOnly" {
		t.Errorf("flushed = %+v", st.events)
	}
	if guild.Creates != 1 || guild.Updates != 0 {
		t.Errorf("creates=%d updates=%d", guild.Creates, guild.Updates)
	}

	if len(rec.runs) != 1 || rec.observed != 1 {
		t.Fatalf("runs=%d observed=%d", len(rec.runs), rec.observed)
	}
	run := rec.runs[0]
	if run.GuildID != "g" || run.MissingLocal != 1 || run.AppliedLocal != 1 || run.AppliedDiscord != 1 || run.Skipped != 1 || run.ID == "" {
		t.Errorf("run = %+v", run)
	}
	if strings.Join(rec.dbOps, ",") != "load,flush" {
		t.Errorf("database ops = %v", rec.dbOps)
	}
}

func TestRunInSync(t *testing.T) {
	guild := discordtest.NewMemory(externalEvent("1", "Same"))
	st := &memoryStore{events: []model.LocalEvent{localEvent("1", "Same")}}

	report, err := newOrchestrator(guild, st, decision.Policy{Decision: model.DecisionKeepLocal}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.InSync() || st.flushes != 0 {
		t.Errorf("in sync run flushed %d times: %+v", st.flushes, report)
	}
	var out bytes.Buffer
	report.Render(&out)
	if !strings.Contains(out.String(), "in sync") {
		t.Errorf("render = %q", out.String())
	}
}

func TestRunFailureIsolated(t *testing.T) {
	guild, st := mixedFixture()
	guild.UpdateErr["shared"] = errors.New("403 Forbidden")

	report, err := newOrchestrator(guild, st, decision.Policy{Decision: model.DecisionKeepLocal}).Run(context.Background())
	if err != nil {
		t.Fatalf("a failed conflict must not fail the run: %v", err)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Key != "shared" {
		t.Fatalf("failed = %+v", failed)
	}
	var serviceErr *model.ExternalServiceError
	if !errors.As(failed[0].Err, &serviceErr) || serviceErr.Op != "update" {
		t.Errorf("err = %v", failed[0].Err)
	}
	// keep_local is not valid for missing_local, the policy turns it into skip
	if report.ByOutcome[resolve.OutcomeSkipped] != 1 || report.ByOutcome[resolve.OutcomeAppliedLocal] != 1 {
		t.Errorf("by outcome = %v", report.ByOutcome)
	}
	if st.flushes != 1 {
		t.Errorf("flushes = %d", st.flushes)
	}

	var out bytes.Buffer
	report.Render(&out)
	if !strings.Contains(out.String(), "403 Forbidden") || !strings.Contains(out.String(), "1 failed") {
		t.Errorf("render:\n%s", out.String())
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	guild, st := mixedFixture()
	decider := byKey{
		"discordOnly": model.DecisionKeepDiscord,
		"localOnly":   model.DecisionKeepLocal,
		"shared":      model.DecisionKeepDiscord,
	}
	if _, err := newOrchestrator(guild, st, decider).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	report, err := newOrchestrator(guild, st, decider).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.InSync() {
		t.Errorf("second run found conflicts: %+v", report.Conflicts)
	}
}

func TestRunDryRun(t *testing.T) {
	guild, st := mixedFixture()
	rec := &recorder{}
	report, err := newOrchestrator(guild, st, decision.Policy{Decision: model.DecisionKeepLocal}).
		WithDryRun(true).
		WithRunRecorder(rec).
		Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Total() != 3 || len(report.Results) != 0 {
		t.Errorf("report = %+v", report)
	}
	if st.flushes != 0 || guild.Creates != 0 || guild.Updates != 0 {
		t.Errorf("dry run wrote: flushes=%d creates=%d updates=%d", st.flushes, guild.Creates, guild.Updates)
	}
	if len(rec.runs) != 1 || !rec.runs[0].DryRun {
		t.Errorf("runs = %+v", rec.runs)
	}

	var out bytes.Buffer
	report.Render(&out)
	if !strings.Contains(out.String(), "Dry run") || !strings.Contains(out.String(), `Title: "Local title" vs "Discord title"`) {
		t.Errorf("render:\n%s", out.String())
	}
}

func TestRunStoreFailuresAreFatal(t *testing.T) {
	guild, st := mixedFixture()
	st.loadErr = errors.New("disk gone")

	_, err := newOrchestrator(guild, st, decision.Policy{Decision: model.DecisionKeepLocal}).Run(context.Background())
	var storeErr *model.LocalStoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "load" {
		t.Fatalf("expected a load LocalStoreError, got %v", err)
	}
	if guild.Creates != 0 || guild.Updates != 0 {
		t.Error("nothing may be applied after a load failure")
	}

	guild, st = mixedFixture()
	st.flushErr = errors.New("read-only")
	_, err = newOrchestrator(guild, st, decision.Policy{Decision: model.DecisionKeepLocal}).Run(context.Background())
	if !errors.As(err, &storeErr) || storeErr.Op != "flush" {
		t.Fatalf("expected a flush LocalStoreError, got %v", err)
	}
	// the Discord side was already written and stays written
	if guild.Creates != 1 {
		t.Errorf("creates = %d", guild.Creates)
	}
}

func TestRunPromptDecider(t *testing.T) {
	guild, st := mixedFixture()
	var out bytes.Buffer
	prompt := decision.NewPrompt(strings.NewReader("2\n1\n2\n"), &out)

	report, err := newOrchestrator(guild, st, prompt).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.ByOutcome[resolve.OutcomeAppliedDiscord] != 2 || report.ByOutcome[resolve.OutcomeAppliedLocal] != 1 {
		t.Errorf("by outcome = %v", report.ByOutcome)
	}
	if st.events[1].Title != "Discord title" {
		t.Errorf("shared event not replaced: %+v", st.events[1])
	}
}
