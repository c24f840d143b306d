package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"budgetdash/internal/core"
	applog "budgetdash/internal/log"
)

const planTimeout = 30 * time.Second

const systemPrompt = `You operate a personal budget. Today is %s; weeks start on Monday.
Pick exactly one tool that fulfils the user's request. Use ISO dates (YYYY-MM-DD)
and positive amounts. If the request is not about the budget, call no tool.`

// OpenAIPlanner asks a chat model with tool calling to pick the operation.
type OpenAIPlanner struct {
	client *openai.Client
	model  string
	tools  []openai.Tool
}

// NewOpenAIPlanner builds a planner. baseURL may be empty to use the public API.
func NewOpenAIPlanner(apiKey, model, baseURL string) *OpenAIPlanner {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIPlanner{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		tools:  Tools(),
	}
}

func (p *OpenAIPlanner) Plan(ctx context.Context, text string, today core.Date) (ToolCall, error) {
	ctx, cancel := context.WithTimeout(ctx, planTimeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, today.String())},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Tools:       p.tools,
		ToolChoice:  "auto",
		Temperature: 0,
	})
	if err != nil {
		return ToolCall{}, fmt.Errorf("chat completion: %w", err)
	}

	return firstToolCall(resp)
}

func firstToolCall(resp openai.ChatCompletionResponse) (ToolCall, error) {
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return ToolCall{}, ErrNoOperation
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) > 1 {
		slog.Warn("Planner returned several tool calls, using the first", applog.NewFields().
			WithComponent(applog.ComponentAssistant).
			WithCount(len(calls)).
			ToSlice()...)
	}

	fn := calls[0].Function
	args := json.RawMessage(fn.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return ToolCall{}, fmt.Errorf("%w: tool %s returned malformed arguments", ErrNoOperation, fn.Name)
	}
	return ToolCall{Name: fn.Name, Arguments: args}, nil
}
