package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/xeval-dev/xeval/internal/config"
	"github.com/xeval-dev/xeval/pkg/reconcile"
	"github.com/xeval-dev/xeval/pkg/spec"
)

func runValidate(args []string) error {
	flags := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	glob := flags.String("glob", "", "spec file glob (overrides config)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, root, err := config.Find(".")
	if err != nil {
		return err
	}
	if *glob != "" {
		cfg.Evals.Glob = *glob
	}

	specs, err := spec.Find(cfg.Evals.Glob, root)
	if err != nil {
		return err
	}
	if err := reconcile.CheckNames(specs); err != nil {
		return err
	}

	for _, loaded := range specs {
		if _, err := spec.Convert(loaded.Spec); err != nil {
			return err
		}
		fmt.Printf("ok  %-20s %s\n", loaded.Spec.Name, loaded.Path)
	}
	fmt.Printf("%d spec(s) valid\n", len(specs))
	return nil
}
