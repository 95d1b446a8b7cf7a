package store_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/store"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newStore(t *testing.T) *store.Bun {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })

	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return store.NewBun(bundb)
}

func intPtr(i int) *int { return &i }

func event(id, title string) model.LocalEvent {
	return model.LocalEvent{
		ID:              id,
		Title:           title,
		Type:            model.EventTypeCoaching,
		Date:            "2025-03-10",
		Time:            "18:00",
		Timezone:        "Europe/Berlin",
		DurationMinutes: 60,
		CreatedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestBunFlushAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	events, err := s.Load(ctx)
	if err != nil || len(events) != 0 {
		t.Fatalf("empty store: %v %v", events, err)
	}

	weekly := event("b", "Weekly")
	weekly.ExternalID = "1234"
	weekly.VideoIDs = []string{"v1", "v2"}
	weekly.SetTags("zerg", "macro")
	weekly.IsFree = true
	weekly.Recurring = &model.Recurring{Enabled: true, Frequency: model.FrequencyWeekly, DayOfWeek: intPtr(2), EndDate: "2025-12-31"}
	if err := s.Flush(ctx, []model.LocalEvent{weekly, event("a", "One-off")}); err != nil {
		t.Fatal(err)
	}

	events, err = s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != "b" || events[1].ID != "a" {
		t.Fatalf("events = %+v", events)
	}
	got := events[0]
	if got.ExternalID != "1234" || !got.IsFree || !slices.Equal(got.VideoIDs, weekly.VideoIDs) || !slices.Equal(got.Tags, []string{"macro", "zerg"}) {
		t.Errorf("fields lost: %+v", got)
	}
	if got.Recurring == nil || got.Recurring.DayOfWeek == nil || *got.Recurring.DayOfWeek != 2 || got.Recurring.EndDate != "2025-12-31" {
		t.Errorf("recurring = %+v", got.Recurring)
	}
	if !got.CreatedAt.Equal(weekly.CreatedAt) {
		t.Errorf("created at = %v", got.CreatedAt)
	}
	if events[1].Recurring != nil || events[1].Categories == nil {
		t.Errorf("one-off = %+v", events[1])
	}

	// a second flush replaces the collection
	if err := s.Flush(ctx, []model.LocalEvent{event("c", "Only")}); err != nil {
		t.Fatal(err)
	}
	events, _ = s.Load(ctx)
	if len(events) != 1 || events[0].ID != "c" {
		t.Errorf("events after replace = %+v", events)
	}
}

func TestBunFlushManyEvents(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	events := make([]model.LocalEvent, 0, 130)
	for i := 0; i < 130; i++ {
		events = append(events, event("event-"+strconv.Itoa(i), "Event"))
	}
	if err := s.Flush(ctx, events); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 130 || loaded[129].ID != events[129].ID {
		t.Errorf("loaded %d events", len(loaded))
	}
}

func TestBunFlushInvalidWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if err := s.Flush(ctx, []model.LocalEvent{event("keep", "Kept")}); err != nil {
		t.Fatal(err)
	}

	bad := event("bad", "")
	err := s.Flush(ctx, []model.LocalEvent{event("new", "New"), bad})
	var storeErr *model.LocalStoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "flush" {
		t.Fatalf("expected a flush LocalStoreError, got %v", err)
	}
	events, _ := s.Load(ctx)
	if len(events) != 1 || events[0].ID != "keep" {
		t.Errorf("collection changed: %+v", events)
	}
}

func TestBunRuns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second"} {
		run := &model.SyncRun{
			ID:           id,
			GuildID:      "g",
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
			FinishedAt:   base.Add(time.Duration(i)*time.Hour + time.Second),
			MissingLocal: i,
		}
		if err := s.RecordRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RecordRun(ctx, &model.SyncRun{ID: "x"}); err == nil {
		t.Error("expected an error for a run without a guild")
	}

	runs, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "second" || runs[0].MissingLocal != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestImportExportJSON(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if err := s.Flush(ctx, []model.LocalEvent{event("existing", "Old title")}); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "events.json")
	if err := os.WriteFile(in, []byte(`[
		{"id": "existing", "title": "New title", "type": "tournament", "date": "2025-04-01", "time": "20:00", "timezone": "UTC", "durationMinutes": 120},
		{"title": "No id yet", "date": "2025-04-02", "time": "19:00", "timezone": "UTC", "durationMinutes": 60,
		 "recurring": {"enabled": true, "frequency": "monthly"}}
	]`), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := store.ImportJSON(ctx, s, in)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d", n)
	}
	events, _ := s.Load(ctx)
	if len(events) != 2 || events[0].ID != "existing" || events[0].Title != "New title" {
		t.Fatalf("events = %+v", events)
	}
	if events[1].ID == "" || events[1].Type != model.EventTypeOther || events[1].CreatedAt.IsZero() {
		t.Errorf("imported event not filled in: %+v", events[1])
	}

	out := filepath.Join(dir, "out.json")
	n, err = store.ExportJSON(ctx, s, out)
	if err != nil || n != 2 {
		t.Fatalf("export: %d %v", n, err)
	}

	// exporting then importing into a fresh store gives the same collection
	other := newStore(t)
	if _, err := store.ImportJSON(ctx, other, out); err != nil {
		t.Fatal(err)
	}
	reloaded, _ := other.Load(ctx)
	if len(reloaded) != 2 || reloaded[1].ID != events[1].ID || reloaded[1].Recurring == nil || reloaded[1].Recurring.Frequency != model.FrequencyMonthly {
		t.Errorf("reloaded = %+v", reloaded)
	}
}

func TestImportJSONRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`[{"id": "x", "title": "t", "date": "2025-13-40", "time": "19:00", "timezone": "UTC", "durationMinutes": 60}]`), 0o644)

	var validationErr *model.ValidationError
	if _, err := store.ImportJSON(ctx, s, path); !errors.As(err, &validationErr) {
		t.Errorf("expected a ValidationError, got %v", err)
	}
	if _, err := store.ImportJSON(ctx, s, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
