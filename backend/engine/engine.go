// Package engine is the boundary to the Reframe execution engine. The engine itself is an
// external component; this package only knows how to hand it a workflow set and a payload.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

// Op names an engine operation
type Op string

const (
	OpProcess  Op = "process"
	OpValidate Op = "validate"
	OpGenerate Op = "generate"
)

// Engine executes payloads against the workflow set it was created with.
// A fresh engine initializes in the background; every call waits for Ready first.
type Engine interface {
	Ready(ctx context.Context) error
	Process(ctx context.Context, payload string) ([]byte, error)
	ProcessWithTrace(ctx context.Context, payload string) ([]byte, error)
	Validate(ctx context.Context, payload string) ([]byte, error)
	ValidateWithTrace(ctx context.Context, payload string) ([]byte, error)
	Generate(ctx context.Context, content string) ([]byte, error)
	GenerateWithTrace(ctx context.Context, content string) ([]byte, error)
	Close() error
}

// Factory creates an engine bound to one categorized workflow set
type Factory func(workflows models.CategorizedWorkflows) (Engine, error)

// UnwrapPayload extracts the raw payload the engine expects from the debugger's
// {payload, context} envelope value. Strings pass through untouched, anything
// else is re-encoded as compact JSON.
func UnwrapPayload(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("invalid payload: %w", err)
		}
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	return buf.String(), nil
}
