package agent

import (
	"context"

	"github.com/unclebandit/recall-outreach/internal/model"
)

// ParamSpec describes one string or integer argument of a tool.
type ParamSpec struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// ToolSpec is the declaration the model sees.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

type ToolCall struct {
	Name string
	Args map[string]any
}

type ToolResult struct {
	Name     string
	Response map[string]any
}

// ModelReply is one model step: text, tool calls, or both.
type ModelReply struct {
	Text      string
	ToolCalls []ToolCall
}

// Session is one conversation with the model.
type Session interface {
	Send(ctx context.Context, message string) (*ModelReply, error)
	SendToolResults(ctx context.Context, results []ToolResult) (*ModelReply, error)
}

// Backend opens model sessions primed with a system instruction, prior
// messages and the callable tools.
type Backend interface {
	StartSession(ctx context.Context, system string, history []model.Message, tools []ToolSpec) (Session, error)
}
