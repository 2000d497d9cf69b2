// Package auth resolves the OpenAI credential from the environment or
// the global store and verifies it before it is trusted.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xeval-dev/xeval/internal/global"
	"github.com/xeval-dev/xeval/pkg/openai"
)

// ErrMissingToken means no credential could be found anywhere.
var ErrMissingToken = errors.New("no OpenAI token: run `xeval login` or set OPENAI_API_KEY")

// envVars are checked in order before falling back to the global
// store.
var envVars = []string{"XEVAL_OPENAI_TOKEN", "OPENAI_API_KEY"}

// Resolve finds a bearer token and verifies it against the API. It
// fails before any reconciliation work begins when no valid credential
// exists.
func Resolve(ctx context.Context, store *global.Store) (*openai.Client, error) {
	token, err := detect(store)
	if err != nil {
		return nil, err
	}
	client, err := openai.NewClient(token)
	if err != nil {
		return nil, err
	}
	if err := client.Verify(ctx); err != nil {
		return nil, fmt.Errorf("token rejected: %w", err)
	}
	return client, nil
}

func detect(store *global.Store) (string, error) {
	for _, name := range envVars {
		if token := os.Getenv(name); token != "" {
			return token, nil
		}
	}
	if store != nil {
		token, err := store.Token(global.ServiceOpenAI)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}
