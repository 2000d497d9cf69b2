// Package reconcile decides, per local eval spec, whether the remote
// state is current, needs a metadata patch, or needs a new resource —
// and applies that decision.
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xeval-dev/xeval/pkg/openai"
	"github.com/xeval-dev/xeval/pkg/spec"
)

// Reserved metadata keys linking a remote eval back to its local spec.
const (
	MetadataNameKey = "xeval_name"
	MetadataHashKey = "xeval_hash"
)

// Action is the outcome applied for one spec.
type Action int

const (
	ActionNone Action = iota
	ActionPatched
	ActionCreated
)

func (a Action) String() string {
	switch a {
	case ActionPatched:
		return "patched"
	case ActionCreated:
		return "created"
	}
	return "up-to-date"
}

// Effect records an applied outcome. ID is the remote resource the
// effect touched (empty for ActionNone on a resource never created).
type Effect struct {
	Name   string
	Action Action
	ID     string
}

// API is the slice of the remote client the engine writes through.
type API interface {
	CreateEval(ctx context.Context, project string, draft openai.EvalDraft) (openai.Eval, error)
	UpdateEvalMetadata(ctx context.Context, project, id, name string, metadata map[string]string) (openai.Eval, error)
}

// Engine applies reconciliation decisions sequentially, in spec input
// order. The remote index is built once up front, so a spec never sees
// a sibling's freshly created resource within the same run.
type Engine struct {
	api     API
	project string
	log     zerolog.Logger
}

func New(api API, project string, log zerolog.Logger) *Engine {
	return &Engine{api: api, project: project, log: log}
}

// IndexByName folds a remote snapshot into a view keyed by the
// xeval_name metadata. On conflict the entry with the greatest
// created_at wins; equal timestamps keep the first encountered.
func IndexByName(evals []openai.Eval) map[string]openai.Eval {
	byName := make(map[string]openai.Eval)
	for _, e := range evals {
		name, ok := e.Metadata[MetadataNameKey]
		if !ok || name == "" {
			continue
		}
		existing, seen := byName[name]
		if seen && existing.CreatedAt >= e.CreatedAt {
			continue
		}
		byName[name] = e
	}
	return byName
}

// CheckNames rejects duplicate spec names before any remote work. Two
// files declaring the same name would otherwise race each other for
// one remote resource.
func CheckNames(specs []spec.Loaded) error {
	seen := make(map[string]string, len(specs))
	for _, s := range specs {
		if prev, dup := seen[s.Spec.Name]; dup {
			return spec.ValidationError{
				Spec:    s.Spec.Name,
				Field:   "name",
				Message: fmt.Sprintf("already declared by %s (names must be unique per run)", prev),
			}
		}
		seen[s.Spec.Name] = s.Path
	}
	return nil
}

// Reconcile applies one decision per spec, in input order, against the
// given remote snapshot:
//
//   - no remote entry for the name: create
//   - identity hashes equal: patch metadata only if the stored hash
//     metadata lags the content, else nothing
//   - identity hashes differ: create a new resource — core fields are
//     immutable remotely, so drift never patches in place; the
//     superseded resource is left untouched
//
// A failed remote call aborts that spec's reconciliation and the run;
// effects already applied are not rolled back.
func (e *Engine) Reconcile(ctx context.Context, specs []spec.Loaded, remote []openai.Eval) ([]Effect, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	if err := CheckNames(specs); err != nil {
		return nil, err
	}

	byName := IndexByName(remote)
	effects := make([]Effect, 0, len(specs))

	for _, loaded := range specs {
		effect, err := e.reconcileOne(ctx, loaded, byName)
		if err != nil {
			return effects, fmt.Errorf("reconcile %s: %w", loaded.Spec.Name, err)
		}
		e.log.Info().
			Str("eval", effect.Name).
			Str("action", effect.Action.String()).
			Msg("reconciled")
		effects = append(effects, effect)
	}

	return effects, nil
}

func (e *Engine) reconcileOne(ctx context.Context, loaded spec.Loaded, byName map[string]openai.Eval) (Effect, error) {
	draft, err := spec.Convert(loaded.Spec)
	if err != nil {
		return Effect{}, err
	}
	localHash, err := openai.IdentityHash(draft)
	if err != nil {
		return Effect{}, err
	}
	draft.Metadata = withReservedKeys(draft.Metadata, loaded.Spec.Name, localHash)

	remote, found := byName[loaded.Spec.Name]
	if !found {
		created, err := e.create(ctx, draft)
		if err != nil {
			return Effect{}, err
		}
		return Effect{Name: loaded.Spec.Name, Action: ActionCreated, ID: created.ID}, nil
	}

	remoteHash, err := openai.IdentityHash(remote)
	if err != nil {
		return Effect{}, err
	}

	if remoteHash != localHash {
		// Core fields cannot change in place; a brand-new resource
		// carries the new content. The old one stays as-is.
		created, err := e.create(ctx, draft)
		if err != nil {
			return Effect{}, err
		}
		return Effect{Name: loaded.Spec.Name, Action: ActionCreated, ID: created.ID}, nil
	}

	if remote.Metadata[MetadataHashKey] == localHash {
		return Effect{Name: loaded.Spec.Name, Action: ActionNone, ID: remote.ID}, nil
	}

	// Same content, lagging metadata (e.g. written by an older engine
	// version): bring only the metadata up to date.
	if _, err := e.api.UpdateEvalMetadata(ctx, e.project, remote.ID, "", draft.Metadata); err != nil {
		return Effect{}, err
	}
	return Effect{Name: loaded.Spec.Name, Action: ActionPatched, ID: remote.ID}, nil
}

func (e *Engine) create(ctx context.Context, eval openai.Eval) (openai.Eval, error) {
	draft, err := openai.DraftFromEval(eval)
	if err != nil {
		return openai.Eval{}, err
	}
	return e.api.CreateEval(ctx, e.project, draft)
}

// withReservedKeys merges the reserved keys into any metadata already
// present, overwriting stale reserved values but keeping everything
// else.
func withReservedKeys(metadata map[string]string, name, hash string) map[string]string {
	merged := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		merged[k] = v
	}
	merged[MetadataNameKey] = name
	merged[MetadataHashKey] = hash
	return merged
}
