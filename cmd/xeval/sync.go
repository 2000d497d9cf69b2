package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/xeval-dev/xeval/internal/auth"
	"github.com/xeval-dev/xeval/internal/config"
	"github.com/xeval-dev/xeval/internal/global"
	"github.com/xeval-dev/xeval/internal/logging"
	"github.com/xeval-dev/xeval/internal/state"
	"github.com/xeval-dev/xeval/pkg/reconcile"
	"github.com/xeval-dev/xeval/pkg/spec"
)

func runSync(args []string) error {
	flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	force := flags.BoolP("force", "f", false, "refresh the remote cache even if fresh")
	project := flags.String("project", "", "OpenAI project id (overrides config)")
	glob := flags.String("glob", "", "spec file glob (overrides config)")
	verbose := flags.BoolP("verbose", "v", false, "debug logging")
	if err := flags.Parse(args); err != nil {
		return err
	}

	log := logging.Init(*verbose)
	ctx := context.Background()

	cfg, root, err := config.Find(".")
	if err != nil {
		return err
	}
	if *project != "" {
		cfg.OpenAI.Project = *project
	}
	if *glob != "" {
		cfg.Evals.Glob = *glob
	}

	specs, err := spec.Find(cfg.Evals.Glob, root)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		// No auth or listing round-trip when there is nothing to do.
		fmt.Printf("no specs match %s, nothing to reconcile\n", cfg.Evals.Glob)
		return nil
	}
	if err := reconcile.CheckNames(specs); err != nil {
		return err
	}
	log.Debug().Int("specs", len(specs)).Str("glob", cfg.Evals.Glob).Msg("loaded specs")

	store, err := global.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := auth.Resolve(ctx, store)
	if err != nil {
		return err
	}

	cache := state.NewEvalsCache(state.NewDir(root), client, log)
	remote, err := cache.Sync(ctx, cfg.OpenAI.Project, *force)
	if err != nil {
		return err
	}

	engine := reconcile.New(client, cfg.OpenAI.Project, log)
	effects, err := engine.Reconcile(ctx, specs, remote)
	for _, effect := range effects {
		fmt.Printf("%-12s %s\n", effect.Action, effect.Name)
	}
	return err
}
