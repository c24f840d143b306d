// Package assistant turns a free-form sentence into one budget operation.
//
// A Planner picks the operation and its JSON arguments; the Dispatcher runs it
// against the same services the REST handlers use.
package assistant

import (
	"context"
	"encoding/json"
	"errors"

	"budgetdash/internal/core"
)

// ErrNoOperation is returned when the planner could not map the text to any tool.
var ErrNoOperation = errors.New("no operation recognized")

// ToolCall is the operation chosen by a Planner.
type ToolCall struct {
	Name      string          `json:"operation"`
	Arguments json.RawMessage `json:"arguments"`
}

// Planner chooses the operation that best matches text. today anchors relative dates.
type Planner interface {
	Plan(ctx context.Context, text string, today core.Date) (ToolCall, error)
}
