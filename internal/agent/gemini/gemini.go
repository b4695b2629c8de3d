// Package gemini adapts Google's Gemini chat API to agent.Backend.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/unclebandit/recall-outreach/internal/agent"
	"github.com/unclebandit/recall-outreach/internal/model"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

type Backend struct {
	client    *genai.Client
	modelName string
}

var _ agent.Backend = (*Backend)(nil)

func New(ctx context.Context, apiKey, modelName string) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Backend{client: client, modelName: modelName}, nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}

// StartSession builds a fresh model per turn so concurrent turns never share
// a system instruction.
func (b *Backend) StartSession(ctx context.Context, system string, history []model.Message, tools []agent.ToolSpec) (agent.Session, error) {
	m := b.client.GenerativeModel(b.modelName)
	m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	m.Tools = toTools(tools)

	cs := m.StartChat()
	past, pending := splitTrailingUser(toHistory(history))
	cs.History = past
	return &session{chat: cs, pending: pending}, nil
}

type session struct {
	chat *genai.ChatSession
	// pending holds unanswered inbound texts sent along with the next message.
	pending []genai.Part
}

func (s *session) Send(ctx context.Context, message string) (*agent.ModelReply, error) {
	parts := append(s.pending, genai.Text(message))
	s.pending = nil
	resp, err := s.chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: send message: %w", err)
	}
	return fromResponse(resp), nil
}

func (s *session) SendToolResults(ctx context.Context, results []agent.ToolResult) (*agent.ModelReply, error) {
	parts, err := toFunctionResponses(results)
	if err != nil {
		return nil, err
	}
	resp, err := s.chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: send tool results: %w", err)
	}
	return fromResponse(resp), nil
}

// toFunctionResponses round-trips each response through JSON so typed slices
// and structs become the plain maps and []any that protobuf Struct accepts.
func toFunctionResponses(results []agent.ToolResult) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(results))
	for _, r := range results {
		raw, err := json.Marshal(r.Response)
		if err != nil {
			return nil, fmt.Errorf("gemini: encode %s result: %w", r.Name, err)
		}
		response := map[string]any{}
		if err := json.Unmarshal(raw, &response); err != nil {
			return nil, fmt.Errorf("gemini: decode %s result: %w", r.Name, err)
		}
		parts = append(parts, genai.FunctionResponse{Name: r.Name, Response: response})
	}
	return parts, nil
}

func toTools(specs []agent.ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		params := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(spec.Params)),
		}
		for _, p := range spec.Params {
			params.Properties[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// toHistory maps stored messages to chat turns. Gemini wants alternating
// roles starting with the user, so consecutive messages from one side are
// merged and a leading outbound message gets a placeholder user turn in front.
func toHistory(messages []model.Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		body := strings.TrimSpace(m.Body)
		if body == "" {
			continue
		}
		role := roleUser
		if m.Direction == model.Outbound {
			role = roleModel
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, genai.Text(body))
			continue
		}
		if len(out) == 0 && role == roleModel {
			out = append(out, &genai.Content{Role: roleUser, Parts: []genai.Part{genai.Text("(conversation started by dealership)")}})
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(body)}})
	}
	return out
}

// splitTrailingUser removes a final user turn from history and returns its
// parts, so the next Send carries them and roles keep alternating.
func splitTrailingUser(history []*genai.Content) ([]*genai.Content, []genai.Part) {
	n := len(history)
	if n == 0 || history[n-1].Role != roleUser {
		return history, nil
	}
	return history[:n-1], history[n-1].Parts
}

func fromResponse(resp *genai.GenerateContentResponse) *agent.ModelReply {
	reply := &agent.ModelReply{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return reply
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{Name: p.Name, Args: p.Args})
		case *genai.FunctionCall:
			reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{Name: p.Name, Args: p.Args})
		}
	}
	reply.Text = text.String()
	return reply
}
