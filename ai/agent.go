package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"seo-agent/logging"
)

// ErrMaxRounds is returned when the model keeps requesting tools past the
// configured number of rounds without producing an answer.
var ErrMaxRounds = errors.New("maximum tool rounds reached")

const (
	defaultMaxToolRounds = 6
	defaultMaxToolOutput = 20000
)

// Toolbox executes the tools the model may call.
type Toolbox interface {
	Tools() []Tool
	Call(ctx context.Context, name, arguments string) (string, error)
}

type AgentConfig struct {
	Provider      Provider
	Toolbox       Toolbox
	Logger        logging.Logger
	Instructions  string
	MaxRounds     int
	MaxToolOutput int
}

// Agent answers one user message by letting the model call tools until it
// replies with text. Each Run starts a fresh conversation.
type Agent struct {
	provider      Provider
	toolbox       Toolbox
	logger        logging.Logger
	instructions  string
	tools         []Tool
	maxRounds     int
	maxToolOutput int
}

type ToolCallRecord struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Error     string          `json:"error,omitempty"`
	Duration  time.Duration   `json:"duration"`
}

type Result struct {
	Reply     string
	Rounds    int
	ToolCalls []ToolCallRecord
}

func NewAgent(cfg AgentConfig) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, errors.New("llm provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Instructions == "" {
		cfg.Instructions = SEOInstructions
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxToolRounds
	}
	if cfg.MaxToolOutput <= 0 {
		cfg.MaxToolOutput = defaultMaxToolOutput
	}
	var tools []Tool
	if cfg.Toolbox != nil {
		tools = cfg.Toolbox.Tools()
	}
	return &Agent{
		provider:      cfg.Provider,
		toolbox:       cfg.Toolbox,
		logger:        cfg.Logger,
		instructions:  cfg.Instructions,
		tools:         tools,
		maxRounds:     cfg.MaxRounds,
		maxToolOutput: cfg.MaxToolOutput,
	}, nil
}

func (a *Agent) Run(ctx context.Context, message string) (*Result, error) {
	messages := []Message{
		{Role: "system", Content: a.instructions},
		{Role: "user", Content: message},
	}
	result := &Result{}

	for round := 0; round < a.maxRounds; round++ {
		completion, err := a.complete(ctx, messages, a.tools)
		if err != nil {
			return nil, err
		}
		result.Rounds++

		if len(completion.ToolCalls) == 0 {
			result.Reply = strings.TrimSpace(completion.Content)
			if result.Reply == "" {
				return nil, fmt.Errorf("%w: model returned an empty reply", ErrUpstream)
			}
			return result, nil
		}

		messages = append(messages, Message{
			Role:      "assistant",
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			output, record := a.callTool(ctx, call)
			result.ToolCalls = append(result.ToolCalls, record)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			messages = append(messages, Message{
				Role:       "tool",
				Content:    output,
				Name:       call.Name,
				ToolCallID: call.ID,
			})
		}
	}

	// Out of tool rounds: ask once more with tools withheld so the model has
	// to answer from what it already gathered.
	messages = append(messages, Message{
		Role:    "user",
		Content: "Tool budget exhausted. Answer now using only the tool results above.",
	})
	completion, err := a.complete(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	result.Rounds++
	result.Reply = strings.TrimSpace(completion.Content)
	if result.Reply == "" || len(completion.ToolCalls) > 0 {
		return nil, fmt.Errorf("%w: %d rounds", ErrMaxRounds, a.maxRounds)
	}
	return result, nil
}

func (a *Agent) complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	completion, err := a.provider.Complete(ctx, messages, tools)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrUpstream) {
			err = fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return nil, err
	}
	return completion, nil
}

// callTool runs one requested tool. Failures are handed back to the model as
// a JSON error object so it can explain or try another tool.
func (a *Agent) callTool(ctx context.Context, call ToolCall) (string, ToolCallRecord) {
	record := ToolCallRecord{Name: call.Name}
	if json.Valid([]byte(call.Arguments)) {
		record.Arguments = json.RawMessage(call.Arguments)
	}

	start := time.Now()
	var output string
	var err error
	if a.toolbox == nil {
		err = fmt.Errorf("unknown tool %q", call.Name)
	} else {
		output, err = a.toolbox.Call(ctx, call.Name, call.Arguments)
	}
	record.Duration = time.Since(start)

	entry := a.logger.WithFields(logging.Fields{
		"tool":        call.Name,
		"duration_ms": record.Duration.Milliseconds(),
	})
	if err != nil {
		record.Error = err.Error()
		entry.WithError(err).Warn("Tool call failed")
		encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(encoded), record
	}
	entry.WithField("output_bytes", len(output)).Info("Tool call completed")
	return TruncateForModel(output, a.maxToolOutput), record
}
