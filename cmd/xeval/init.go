package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/xeval-dev/xeval/internal/config"
)

func runInit(args []string) error {
	flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
	force := flags.Bool("force", false, "overwrite an existing config file")
	dir := flags.String("dir", ".", "directory to initialize")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path := filepath.Join(*dir, config.FileName)
	if err := config.Write(path, config.Default(), *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
