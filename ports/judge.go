package ports

import "context"

// Judge is an external model that answers a rendered evaluation prompt
// with raw text, normally a JSON object carrying "score" and "explanation".
// Implementations must be safe for concurrent use.
type Judge interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// JudgeFunc adapts a plain function to the Judge interface
type JudgeFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f
func (f JudgeFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
