package llm

import (
	"context"
	"strings"
	"sync"

	"arbiter/ports"
)

// MockJudge answers prompts from canned replies. Rules are matched by
// substring in registration order; unmatched prompts get Default.
type MockJudge struct {
	Default string
	Err     error // returned for every call when set

	mu      sync.Mutex
	replies []cannedReply
	prompts []string
}

type cannedReply struct {
	contains string
	reply    string
	err      error
}

var _ ports.Judge = (*MockJudge)(nil)

// NewMockJudge creates a mock judge replying def to unmatched prompts
func NewMockJudge(def string) *MockJudge {
	return &MockJudge{Default: def}
}

// On registers a reply for prompts containing substr
func (m *MockJudge) On(substr, reply string) *MockJudge {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, cannedReply{contains: substr, reply: reply})
	return m
}

// FailOn makes prompts containing substr fail with err
func (m *MockJudge) FailOn(substr string, err error) *MockJudge {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, cannedReply{contains: substr, err: err})
	return m
}

// Complete implements ports.Judge
func (m *MockJudge) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if m.Err != nil {
		return "", m.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range m.replies {
		if strings.Contains(prompt, r.contains) {
			return r.reply, r.err
		}
	}
	return m.Default, nil
}

// Prompts returns every prompt received so far
func (m *MockJudge) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
