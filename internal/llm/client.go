package llm

import (
	"context"
)

// Client generates free text from a prompt. Provider clients implement it.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
