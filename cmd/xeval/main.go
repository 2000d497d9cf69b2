package main

import (
	"fmt"
	"os"
)

const usage = `xeval keeps local eval specs in sync with the OpenAI evals API.

Usage:
  xeval init      write a starter xeval.toml in the current directory
  xeval login     store and verify an OpenAI API token
  xeval validate  load and convert every local spec without network access
  xeval sync      reconcile local specs against the remote evals
  xeval projects  list organization projects usable with --project

Run "xeval <command> --help" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "login":
		err = runLogin(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "sync":
		err = runSync(os.Args[2:])
	case "projects":
		err = runProjects(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
