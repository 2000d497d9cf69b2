package state

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeval-dev/xeval/pkg/openai"
)

// fakeLister serves canned evals and counts which calls happen.
type fakeLister struct {
	evals     []openai.Eval
	pageCalls int
	fullCalls int
}

func (f *fakeLister) ListEvalsPage(_ context.Context, p openai.ListEvalsParams) (openai.List[openai.Eval], error) {
	f.pageCalls++
	data := f.evals
	if p.Limit > 0 && len(data) > p.Limit {
		data = data[:p.Limit]
	}
	return openai.List[openai.Eval]{Object: "list", Data: data, HasMore: false}, nil
}

func (f *fakeLister) ListAllEvals(_ context.Context, _, _, _ string) ([]openai.Eval, error) {
	f.fullCalls++
	return f.evals, nil
}

func remoteEval(id, name string) openai.Eval {
	return openai.Eval{
		Object: "eval", ID: id, Name: name, CreatedAt: 100,
		DataSourceConfig: openai.DataSourceConfig{Custom: &openai.CustomDataSourceConfig{
			Type: "custom", Schema: openai.SchemaValue{"type": "object"},
		}},
		TestingCriteria: []openai.Grader{},
	}
}

func newTestCache(t *testing.T, lister EvalLister) *EvalsCache {
	t.Helper()
	dir := NewDir(t.TempDir())
	return NewEvalsCache(dir, lister, zerolog.Nop())
}

func TestSyncFreshCacheSkipsNetwork(t *testing.T) {
	lister := &fakeLister{evals: []openai.Eval{remoteEval("e1", "a")}}
	cache := newTestCache(t, lister)

	// Seed the snapshot with a full refresh.
	if _, err := cache.Sync(context.Background(), "", false); err != nil {
		t.Fatalf("seed Sync: %v", err)
	}
	lister.pageCalls, lister.fullCalls = 0, 0

	evals, err := cache.Sync(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if lister.pageCalls != 0 || lister.fullCalls != 0 {
		t.Errorf("fresh cache still hit the network: page=%d full=%d", lister.pageCalls, lister.fullCalls)
	}
	if len(evals) != 1 {
		t.Errorf("got %d evals", len(evals))
	}
}

func TestSyncShortCircuitOnMatchingProbe(t *testing.T) {
	lister := &fakeLister{evals: []openai.Eval{remoteEval("e1", "a"), remoteEval("e2", "b")}}
	cache := newTestCache(t, lister)

	if _, err := cache.Sync(context.Background(), "", false); err != nil {
		t.Fatalf("seed Sync: %v", err)
	}

	// Age the snapshot past the freshness window; the remote is
	// unchanged, so the one-item probe must suffice.
	cache.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	lister.pageCalls, lister.fullCalls = 0, 0

	evals, err := cache.Sync(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if lister.pageCalls != 1 {
		t.Errorf("probe calls = %d, want 1", lister.pageCalls)
	}
	if lister.fullCalls != 0 {
		t.Errorf("full listing ran despite matching probe hash")
	}
	if len(evals) != 2 {
		t.Errorf("got %d evals", len(evals))
	}
}

func TestSyncFullRefreshOnDrift(t *testing.T) {
	lister := &fakeLister{evals: []openai.Eval{remoteEval("e1", "a")}}
	cache := newTestCache(t, lister)

	if _, err := cache.Sync(context.Background(), "", false); err != nil {
		t.Fatalf("seed Sync: %v", err)
	}

	// The newest remote eval changed.
	lister.evals = []openai.Eval{remoteEval("e9", "changed"), remoteEval("e1", "a")}
	cache.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	lister.pageCalls, lister.fullCalls = 0, 0

	evals, err := cache.Sync(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if lister.fullCalls != 1 {
		t.Errorf("full calls = %d, want 1", lister.fullCalls)
	}
	if len(evals) != 2 {
		t.Errorf("got %d evals", len(evals))
	}
}

func TestSyncForceSkipsFreshnessWindowOnly(t *testing.T) {
	lister := &fakeLister{evals: []openai.Eval{remoteEval("e1", "a")}}
	cache := newTestCache(t, lister)

	if _, err := cache.Sync(context.Background(), "", false); err != nil {
		t.Fatalf("seed Sync: %v", err)
	}
	lister.pageCalls, lister.fullCalls = 0, 0

	// Force bypasses the time check but the probe short-circuit still
	// avoids a full listing when nothing changed.
	if _, err := cache.Sync(context.Background(), "", true); err != nil {
		t.Fatalf("forced Sync: %v", err)
	}
	if lister.pageCalls != 1 || lister.fullCalls != 0 {
		t.Errorf("forced sync: page=%d full=%d, want 1/0", lister.pageCalls, lister.fullCalls)
	}
}

func TestSyncCorruptSnapshotFallsBackToRefresh(t *testing.T) {
	lister := &fakeLister{evals: []openai.Eval{remoteEval("e1", "a")}}
	dir := NewDir(t.TempDir())
	cache := NewEvalsCache(dir, lister, zerolog.Nop())

	path := dir.Path("openai", "evals.json")
	if err := os.MkdirAll(dir.Path("openai"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	evals, err := cache.Sync(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Sync with corrupt snapshot: %v", err)
	}
	if len(evals) != 1 {
		t.Errorf("got %d evals", len(evals))
	}
	if lister.fullCalls != 1 {
		t.Errorf("full calls = %d, want 1", lister.fullCalls)
	}
}

func TestSnapshotPersistsAcrossInstances(t *testing.T) {
	lister := &fakeLister{evals: []openai.Eval{remoteEval("e1", "a")}}
	root := t.TempDir()

	first := NewEvalsCache(NewDir(root), lister, zerolog.Nop())
	if _, err := first.Sync(context.Background(), "", false); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	second := NewEvalsCache(NewDir(root), lister, zerolog.Nop())
	lister.pageCalls, lister.fullCalls = 0, 0
	evals, err := second.Sync(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if lister.pageCalls != 0 || lister.fullCalls != 0 {
		t.Error("persisted snapshot not honored by a fresh instance")
	}
	if len(evals) != 1 || evals[0].ID != "e1" {
		t.Errorf("evals = %+v", evals)
	}
}
