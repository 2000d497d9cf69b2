package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/xeval-dev/xeval/internal/global"
	"github.com/xeval-dev/xeval/pkg/openai"
)

func runLogin(args []string) error {
	flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
	token := flags.String("token", "", "API token (read from stdin when omitted)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	t := *token
	if t == "" {
		t = os.Getenv("OPENAI_API_KEY")
	}
	if t == "" {
		fmt.Fprint(os.Stderr, "OpenAI API token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		t = strings.TrimSpace(line)
	}
	if t == "" {
		return fmt.Errorf("no token provided")
	}

	client, err := openai.NewClient(t)
	if err != nil {
		return err
	}
	if err := client.Verify(context.Background()); err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}

	store, err := global.Open()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SetToken(global.ServiceOpenAI, t); err != nil {
		return err
	}

	fmt.Println("token verified and stored")
	return nil
}
