// Package agent drives an OpenAI-compatible model through a single forced tool call and
// validates its arguments, feeding validation errors back until the model gets it right.
package agent

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slices"
)

// ChatClient is the part of the OpenAI client the agent needs
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Task is one structured extraction: the model must answer by calling Tool, and Validate
// turns the call's JSON arguments into a result or explains what is wrong with them
type Task struct {
	System   string
	Prompt   string
	Tool     openai.FunctionDefinition
	Validate func(arguments string) (any, error)
}

// Agent runs tasks against a chat model
type Agent struct {
	logger      *log.Logger
	client      ChatClient
	model       string
	maxAttempts int
}

// NewAgent creates a new Agent for tool-calling
func NewAgent(logger *log.Logger, client ChatClient, model string, maxAttempts int) *Agent {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Agent{
		logger:      logger,
		client:      client,
		model:       model,
		maxAttempts: maxAttempts,
	}
}

// NewOpenRouterAgent creates an Agent configured for OpenRouter's OpenAI-compatible API
func NewOpenRouterAgent(logger *log.Logger, apiKey, model string, maxAttempts int) *Agent {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = "https://openrouter.ai/api/v1"
	return NewAgent(logger, openai.NewClientWithConfig(cfg), model, maxAttempts)
}

// Model returns the model name requests are sent to
func (a *Agent) Model() string {
	return a.model
}

// Run asks the model to call the task's tool, retrying with the validation error as
// feedback until the arguments validate or the attempts run out
func (a *Agent) Run(ctx context.Context, task Task) (any, error) {
	tool := task.Tool
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: task.System},
		{Role: openai.ChatMessageRoleUser, Content: task.Prompt},
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.logger.Debug("Requesting tool call", "tool", tool.Name, "attempt", attempt)

		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: slices.Clone(messages),
			Tools:    []openai.Tool{{Type: openai.ToolTypeFunction, Function: &tool}},
			ToolChoice: openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: tool.Name},
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("chat completion failed: %w", err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in response")
			continue
		}

		call, ok := findToolCall(resp.Choices[0].Message, tool.Name)
		if !ok {
			lastErr = fmt.Errorf("model did not call %s", tool.Name)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("You must answer by calling the %s function.", tool.Name),
			})
			continue
		}

		result, err := task.Validate(call.Function.Arguments)
		if err == nil {
			return result, nil
		}
		a.logger.Debug("Tool call failed validation", "tool", tool.Name, "arguments", call.Function.Arguments, "error", err)
		lastErr = err
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			Content: "Previous tool call arguments:\n" + call.Function.Arguments + "\n" +
				"Error: " + err.Error() + "\n" +
				"Please correct your response.",
		})
	}

	return nil, fmt.Errorf("failed to get valid %s call after %d attempts: %w", tool.Name, a.maxAttempts, lastErr)
}

func findToolCall(msg openai.ChatCompletionMessage, name string) (openai.ToolCall, bool) {
	for _, call := range msg.ToolCalls {
		if call.Function.Name == name {
			return call, true
		}
	}
	return openai.ToolCall{}, false
}
