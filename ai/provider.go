package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUpstream wraps every failure reported by, or while talking to, the
// language model API.
var ErrUpstream = errors.New("llm upstream error")

const (
	GeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	OpenAIAPIURL = "https://api.openai.com/v1"
)

// Provider is a chat-completions backend that can request tool calls.
type Provider interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error)
}

// Message is one entry of the conversation sent to the model. Assistant
// messages that requested tools carry ToolCalls; tool results carry the
// ToolCallID they answer.
type Message struct {
	Role       string
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// Tool describes a callable function to the model. Parameters is a JSON
// schema object.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Completion is one model turn: either text, tool calls, or both.
type Completion struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

type Config struct {
	Provider string
	Model    string
	APIKey   string
	APIURL   string
	Timeout  time.Duration
}

// NewProvider returns the backend named by cfg.Provider. Gemini is reached
// through its OpenAI-compatible endpoint, so both share one client.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		if cfg.APIURL == "" {
			cfg.APIURL = GeminiAPIURL
		}
		if cfg.Model == "" {
			cfg.Model = "gemini-2.0-flash"
		}
		return NewOpenAIProvider(cfg), nil
	case "openai":
		if cfg.APIURL == "" {
			cfg.APIURL = OpenAIAPIURL
		}
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
