package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"starbase-monitor/internal/domain"
	"starbase-monitor/internal/notify"
)

type fakeProvider struct {
	structures []domain.Structure
	err        error
}

func (p *fakeProvider) Structures(ctx context.Context) ([]domain.Structure, error) {
	return p.structures, p.err
}

type fakeResolver struct {
	ids map[string]int32
}

func (r *fakeResolver) SolarSystemIDs(ctx context.Context, names []string) (map[string]int32, error) {
	return r.ids, nil
}

type fakeStore struct {
	states  map[int64]domain.State
	saved   []map[int64]domain.State
	saveErr error
}

func (s *fakeStore) LoadStates(ctx context.Context) (map[int64]domain.State, error) {
	out := make(map[int64]domain.State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) SaveStates(ctx context.Context, states map[int64]domain.State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, states)
	s.states = states
	return nil
}

type fakeHistory struct {
	runIDs  []string
	changes [][]domain.StateChange
	err     error
}

func (h *fakeHistory) InsertTransitions(ctx context.Context, runID string, changes []domain.StateChange) error {
	if h.err != nil {
		return h.err
	}
	h.runIDs = append(h.runIDs, runID)
	h.changes = append(h.changes, changes)
	return nil
}

type fakeSink struct {
	messages []notify.Message
	err      error
}

func (s *fakeSink) Send(ctx context.Context, msg notify.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func newRunner(p *fakeProvider, st *fakeStore, sink *fakeSink) *Runner {
	return &Runner{
		RunID:      "test-run",
		Provider:   p,
		Store:      st,
		Sink:       sink,
		Thresholds: testThresholds,
		Now:        func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRunReportsTransitionAndPersists(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "Moon 4 Fuel Depot", FuelBlocks: 240}, // danger
		{StarbaseID: 2, DisplayName: "Backup Tower", FuelBlocks: 2400},     // good
	}}
	store := &fakeStore{states: map[int64]domain.State{
		1: domain.StateGood,
		2: domain.StateGood,
	}}
	sink := &fakeSink{}

	if err := newRunner(provider, store, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sink.messages))
	}
	msg := sink.messages[0]
	if len(msg.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1 (unchanged structure must be excluded)", len(msg.Attachments))
	}
	if msg.Attachments[0].Title != "Moon 4 Fuel Depot is DANGER (1.0 days)" {
		t.Errorf("title = %q", msg.Attachments[0].Title)
	}
	if msg.Lead != "<!channel> Starbase fuel state changes:" {
		t.Errorf("lead = %q, want urgent prefix", msg.Lead)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d times, want 1", len(store.saved))
	}
	if store.saved[0][1] != domain.StateDanger || store.saved[0][2] != domain.StateGood {
		t.Fatalf("persisted mapping wrong: %v", store.saved[0])
	}
}

func TestRunNoChangesSendsNothing(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 2, DisplayName: "B", FuelBlocks: 2400},
	}}
	store := &fakeStore{states: map[int64]domain.State{2: domain.StateGood}}
	sink := &fakeSink{err: errors.New("sink must not be called")}

	if err := newRunner(provider, store, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("states must still persist on a quiet run, saved %d times", len(store.saved))
	}
}

func TestRunIdempotentSecondPass(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "A", FuelBlocks: 240},
	}}
	store := &fakeStore{states: map[int64]domain.State{}}
	sink := &fakeSink{}
	runner := newRunner(provider, store, sink)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(sink.messages) != 1 {
		t.Fatalf("second identical run must not notify again, got %d messages", len(sink.messages))
	}
	if store.states[1] != domain.StateDanger {
		t.Fatalf("persisted state = %q, want danger", store.states[1])
	}
}

func TestRunNotifyFailureAbortsBeforePersist(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "A", FuelBlocks: 240},
	}}
	store := &fakeStore{states: map[int64]domain.State{1: domain.StateGood}}
	sink := &fakeSink{err: errors.New("webhook down")}

	err := newRunner(provider, store, sink).Run(context.Background())
	if err == nil {
		t.Fatal("expected run to fail when delivery fails")
	}
	if len(store.saved) != 0 {
		t.Fatal("states must not persist after a failed notification")
	}
}

func TestRunSortsSoonestFirst(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "A", FuelBlocks: 480},  // 48h
		{StarbaseID: 2, DisplayName: "B", FuelBlocks: 100},  // 10h
		{StarbaseID: 3, DisplayName: "C", FuelBlocks: 1000}, // 100h
	}}
	store := &fakeStore{states: map[int64]domain.State{}}
	sink := &fakeSink{}

	if err := newRunner(provider, store, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	msg := sink.messages[0]
	wantOrder := []string{"B", "A", "C"} // 10h, 48h, 100h
	for i, name := range wantOrder {
		if got := msg.Attachments[i].Fallback; got[:1] != name {
			t.Fatalf("attachment %d = %q, want structure %s first", i, got, name)
		}
	}
}

func TestRunRecordsHistoryTransitions(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "A", FuelBlocks: 240},  // danger
		{StarbaseID: 2, DisplayName: "B", FuelBlocks: 2400}, // good, unchanged
	}}
	store := &fakeStore{states: map[int64]domain.State{2: domain.StateGood}}
	sink := &fakeSink{}
	history := &fakeHistory{}

	runner := newRunner(provider, store, sink)
	runner.History = history

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(history.runIDs) != 1 {
		t.Fatalf("history written %d times, want 1", len(history.runIDs))
	}
	if history.runIDs[0] != "test-run" {
		t.Errorf("run id = %q, want test-run", history.runIDs[0])
	}
	if len(history.changes[0]) != 1 {
		t.Fatalf("history got %d transitions, want 1 (unchanged structure must be excluded)", len(history.changes[0]))
	}
	ch := history.changes[0][0]
	if ch.Structure.StarbaseID != 1 || ch.Previous != domain.StateUnknown || ch.Current != domain.StateDanger {
		t.Fatalf("transition = %d %q -> %q", ch.Structure.StarbaseID, ch.Previous, ch.Current)
	}
}

func TestRunQuietRunSkipsHistory(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 2, DisplayName: "B", FuelBlocks: 2400},
	}}
	store := &fakeStore{states: map[int64]domain.State{2: domain.StateGood}}
	history := &fakeHistory{}

	runner := newRunner(provider, store, &fakeSink{})
	runner.History = history

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(history.runIDs) != 0 {
		t.Fatalf("history written %d times on a quiet run, want 0", len(history.runIDs))
	}
}

func TestRunHistoryFailureIsNotFatal(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "A", FuelBlocks: 240},
	}}
	store := &fakeStore{states: map[int64]domain.State{1: domain.StateGood}}
	sink := &fakeSink{}

	runner := newRunner(provider, store, sink)
	runner.History = &fakeHistory{err: errors.New("db down")}

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("a history failure must not fail the run: %v", err)
	}
	if len(sink.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sink.messages))
	}
	if len(store.saved) != 1 {
		t.Fatalf("states must still persist when history fails, saved %d times", len(store.saved))
	}
}

func TestRunAppliesSystemFilter(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "In", SystemID: 30000142, FuelBlocks: 240},
		{StarbaseID: 2, DisplayName: "Out", SystemID: 30002187, FuelBlocks: 240},
	}}
	store := &fakeStore{states: map[int64]domain.State{}}
	sink := &fakeSink{}

	runner := newRunner(provider, store, sink)
	runner.AllowedSystems = []string{"Jita"}
	runner.Resolver = &fakeResolver{ids: map[string]int32{"Jita": 30000142}}

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.messages[0].Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(sink.messages[0].Attachments))
	}
	if _, ok := store.saved[0][2]; ok {
		t.Fatal("filtered-out structure must not be persisted")
	}
}

func TestRunWarnsOnUnresolvedSystemName(t *testing.T) {
	provider := &fakeProvider{structures: []domain.Structure{
		{StarbaseID: 1, DisplayName: "In", SystemID: 30000142, FuelBlocks: 240},
		{StarbaseID: 2, DisplayName: "Out", SystemID: 30002187, FuelBlocks: 240},
	}}
	store := &fakeStore{states: map[int64]domain.State{}}
	sink := &fakeSink{}

	runner := newRunner(provider, store, sink)
	runner.AllowedSystems = []string{"Jita", "Jitta"}
	runner.Resolver = &fakeResolver{ids: map[string]int32{"Jita": 30000142}}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(buf.String(), `"Jitta"`) {
		t.Errorf("expected a warning naming the unresolved system, got %q", buf.String())
	}
	if len(sink.messages[0].Attachments) != 1 {
		t.Fatalf("resolved names must still filter: got %d attachments, want 1", len(sink.messages[0].Attachments))
	}
}
