package state

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeval-dev/xeval/pkg/openai"
)

const (
	openaiDirName  = "openai"
	evalsFileName  = "evals.json"
	orderDesc      = "desc"
	orderByUpdated = "updated_at"

	// freshnessWindow is the cache age below which no staleness check
	// runs at all.
	freshnessWindow = 5 * time.Minute
)

// EvalLister is the slice of the remote client the cache needs.
type EvalLister interface {
	ListEvalsPage(ctx context.Context, p openai.ListEvalsParams) (openai.List[openai.Eval], error)
	ListAllEvals(ctx context.Context, project, order, orderBy string) ([]openai.Eval, error)
}

// evalsSnapshot is the on-disk mirror of the full remote listing.
// Evals keep the remote's most-recently-updated-first ordering; the
// first element anchors the staleness short-circuit.
type evalsSnapshot struct {
	UpdatedAt int64         `json:"updated_at"`
	Evals     []openai.Eval `json:"evals"`
}

// EvalsCache is a read-through, time-boxed copy of the remote eval
// listing. The remote service stays the source of truth.
type EvalsCache struct {
	dir    Dir
	client EvalLister
	log    zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEvalsCache creates a cache rooted at the given state dir.
func NewEvalsCache(dir Dir, client EvalLister, log zerolog.Logger) *EvalsCache {
	return &EvalsCache{dir: dir, client: client, log: log, now: time.Now}
}

// Sync returns the remote eval listing, from cache when possible.
//
// The cached snapshot is returned untouched while it is inside the
// freshness window (unless force). Past the window, a single-item
// probe for the most-recently-updated remote eval decides whether the
// full listing actually changed: matching identity hashes mean the
// stale-by-time snapshot is still valid and one cheap request replaces
// a full refetch. Only on drift (or with no cached baseline) does a
// full listing run, overwriting the snapshot wholesale.
func (c *EvalsCache) Sync(ctx context.Context, project string, force bool) ([]openai.Eval, error) {
	var snapshot evalsSnapshot
	if err := c.dir.ReadJSON(&snapshot, openaiDirName, evalsFileName); err != nil {
		// A corrupt snapshot is not fatal: fall back to an empty
		// baseline and let the full refresh rewrite it.
		c.log.Warn().Err(err).Msg("ignoring unreadable evals cache")
		snapshot = evalsSnapshot{}
	}

	now := c.now().Unix()
	if !force && now-snapshot.UpdatedAt < int64(freshnessWindow.Seconds()) {
		return snapshot.Evals, nil
	}

	probe, err := c.client.ListEvalsPage(ctx, openai.ListEvalsParams{
		Project: project,
		Limit:   1,
		Order:   orderDesc,
		OrderBy: orderByUpdated,
	})
	if err != nil {
		return nil, err
	}

	if firstHash(probe.Data) == firstHash(snapshot.Evals) {
		// Nothing changed remotely; the snapshot stands even though
		// it is stale by time.
		return snapshot.Evals, nil
	}

	evals, err := c.client.ListAllEvals(ctx, project, orderDesc, orderByUpdated)
	if err != nil {
		return nil, err
	}

	snapshot = evalsSnapshot{UpdatedAt: c.now().Unix(), Evals: evals}
	if err := c.dir.WriteJSON(snapshot, openaiDirName, evalsFileName); err != nil {
		return nil, err
	}
	c.log.Debug().Int("evals", len(evals)).Msg("refreshed evals cache")

	return evals, nil
}

// firstHash is the identity hash of the first element, or the empty
// equivalent when there is none or it cannot be hashed.
func firstHash(evals []openai.Eval) string {
	if len(evals) == 0 {
		return ""
	}
	h, err := openai.IdentityHash(evals[0])
	if err != nil {
		return ""
	}
	return h
}
