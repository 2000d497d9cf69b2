package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/xeval-dev/xeval/internal/auth"
	"github.com/xeval-dev/xeval/internal/global"
)

func runProjects(args []string) error {
	flags := pflag.NewFlagSet("projects", pflag.ContinueOnError)
	archived := flags.Bool("archived", false, "include archived projects")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()

	store, err := global.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := auth.Resolve(ctx, store)
	if err != nil {
		return err
	}

	projects, err := client.ListAllProjects(ctx, *archived)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("no projects")
		return nil
	}

	for _, p := range projects {
		fmt.Printf("%-30s %-10s %s\n", p.ID, p.Status, p.Name)
	}
	return nil
}
