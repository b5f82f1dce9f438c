package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu      sync.Mutex
	replies []*Completion
	err     error
	calls   [][]Message
	tools   [][]Tool
}

func (p *scriptedProvider) Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, append([]Message(nil), messages...))
	p.tools = append(p.tools, tools)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.replies) == 0 {
		return &Completion{Content: "done"}, nil
	}
	next := p.replies[0]
	p.replies = p.replies[1:]
	return next, nil
}

type fakeToolbox struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeToolbox) Tools() []Tool {
	return []Tool{{Name: "scrap_meta"}, {Name: "scrap_headings"}}
}

func (f *fakeToolbox) Call(ctx context.Context, name, arguments string) (string, error) {
	f.calls = append(f.calls, name+" "+arguments)
	out, ok := f.outputs[name]
	if !ok {
		return "", errors.New("unknown tool " + name)
	}
	return out, nil
}

func newTestAgent(t *testing.T, provider Provider, toolbox Toolbox, rounds int) *Agent {
	t.Helper()
	agent, err := NewAgent(AgentConfig{Provider: provider, Toolbox: toolbox, MaxRounds: rounds, MaxToolOutput: 32})
	require.NoError(t, err)
	return agent
}

func toolCall(id, name, args string) *Completion {
	return &Completion{ToolCalls: []ToolCall{{ID: id, Name: name, Arguments: args}}, FinishReason: "tool_calls"}
}

func TestAgentDirectReply(t *testing.T) {
	provider := &scriptedProvider{replies: []*Completion{{Content: "  Hello!  "}}}
	agent := newTestAgent(t, provider, &fakeToolbox{}, 3)

	result, err := agent.Run(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello!", result.Reply)
	assert.Equal(t, 1, result.Rounds)
	require.Len(t, provider.calls, 1)
	assert.Equal(t, "system", provider.calls[0][0].Role)
	assert.Equal(t, SEOInstructions, provider.calls[0][0].Content)
	assert.Equal(t, Message{Role: "user", Content: "hi"}, provider.calls[0][1])
	assert.Len(t, provider.tools[0], 2)
}

func TestAgentRunsToolsThenReplies(t *testing.T) {
	provider := &scriptedProvider{replies: []*Completion{
		toolCall("c1", "scrap_meta", `{"site":"example.com"}`),
		{Content: "Your title is fine."},
	}}
	toolbox := &fakeToolbox{outputs: map[string]string{"scrap_meta": `{"title":"Example"}`}}
	agent := newTestAgent(t, provider, toolbox, 3)

	result, err := agent.Run(context.Background(), "check example.com")
	require.NoError(t, err)

	assert.Equal(t, "Your title is fine.", result.Reply)
	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, []string{`scrap_meta {"site":"example.com"}`}, toolbox.calls)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "scrap_meta", result.ToolCalls[0].Name)
	assert.JSONEq(t, `{"site":"example.com"}`, string(result.ToolCalls[0].Arguments))

	second := provider.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, "assistant", second[2].Role)
	assert.Len(t, second[2].ToolCalls, 1)
	assert.Equal(t, Message{Role: "tool", Content: `{"title":"Example"}`, Name: "scrap_meta", ToolCallID: "c1"}, second[3])
}

func TestAgentReportsToolErrorsToModel(t *testing.T) {
	provider := &scriptedProvider{replies: []*Completion{
		toolCall("c1", "missing_tool", `{}`),
		{Content: "Sorry, I could not check that."},
	}}
	agent := newTestAgent(t, provider, &fakeToolbox{}, 3)

	result, err := agent.Run(context.Background(), "check")
	require.NoError(t, err)

	assert.Equal(t, "unknown tool missing_tool", result.ToolCalls[0].Error)
	toolMsg := provider.calls[1][3]
	assert.JSONEq(t, `{"error":"unknown tool missing_tool"}`, toolMsg.Content)
}

func TestAgentTruncatesToolOutput(t *testing.T) {
	provider := &scriptedProvider{replies: []*Completion{toolCall("c1", "scrap_meta", `{}`)}}
	toolbox := &fakeToolbox{outputs: map[string]string{"scrap_meta": strings.Repeat("x", 100)}}
	agent := newTestAgent(t, provider, toolbox, 3)

	_, err := agent.Run(context.Background(), "check")
	require.NoError(t, err)

	toolMsg := provider.calls[1][3]
	assert.True(t, strings.HasPrefix(toolMsg.Content, strings.Repeat("x", 32)+"\n... (truncated"))
}

func TestAgentForcesAnswerAfterMaxRounds(t *testing.T) {
	provider := &scriptedProvider{replies: []*Completion{
		toolCall("c1", "scrap_meta", `{}`),
		toolCall("c2", "scrap_headings", `{}`),
		{Content: "Summary from what I have."},
	}}
	toolbox := &fakeToolbox{outputs: map[string]string{"scrap_meta": "{}", "scrap_headings": "{}"}}
	agent := newTestAgent(t, provider, toolbox, 2)

	result, err := agent.Run(context.Background(), "check")
	require.NoError(t, err)

	assert.Equal(t, "Summary from what I have.", result.Reply)
	assert.Equal(t, 3, result.Rounds)
	assert.Nil(t, provider.tools[2])
}

func TestAgentMaxRoundsWithoutAnswer(t *testing.T) {
	provider := &scriptedProvider{replies: []*Completion{
		toolCall("c1", "scrap_meta", `{}`),
		{Content: ""},
	}}
	agent := newTestAgent(t, provider, &fakeToolbox{outputs: map[string]string{"scrap_meta": "{}"}}, 1)

	_, err := agent.Run(context.Background(), "check")
	assert.ErrorIs(t, err, ErrMaxRounds)
}

func TestAgentUpstreamFailures(t *testing.T) {
	agent := newTestAgent(t, &scriptedProvider{err: errors.New("connection reset")}, nil, 3)
	_, err := agent.Run(context.Background(), "hi")
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "connection reset")

	agent = newTestAgent(t, &scriptedProvider{replies: []*Completion{{Content: "   "}}}, nil, 3)
	_, err = agent.Run(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAgentCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{}
	_, err := newTestAgent(t, provider, nil, 3).Run(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, provider.calls)
}

func TestNewAgentRequiresProvider(t *testing.T) {
	_, err := NewAgent(AgentConfig{})
	assert.Error(t, err)
}

func TestTruncateForModel(t *testing.T) {
	assert.Equal(t, "short", TruncateForModel("short", 10))
	assert.Equal(t, "unlimited", TruncateForModel("unlimited", 0))

	out := TruncateForModel("héllo", 2)
	assert.True(t, strings.HasPrefix(out, "h\n... (truncated, 1 of 6 bytes shown)"))
}
