package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Site  string `json:"site" validate:"required"`
	Limit int    `json:"limit,omitempty" validate:"gte=0,lte=10"`
}

type echoOutput struct {
	Site  string `json:"site"`
	Limit int    `json:"limit"`
}

func echoTool(name string) Tool {
	return NewTool(name, "echoes its input", siteParams("site", nil),
		func(ctx context.Context, in echoInput) (echoOutput, error) {
			if in.Site == "fail" {
				return echoOutput{}, errors.New("boom")
			}
			return echoOutput{Site: in.Site, Limit: in.Limit}, nil
		})
}

func TestRegistryInvoke(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(echoTool("echo")))

	out, err := registry.Invoke(context.Background(), "echo", json.RawMessage(`{"site":"example.com","limit":3}`))
	require.NoError(t, err)
	assert.Equal(t, echoOutput{Site: "example.com", Limit: 3}, out)

	text, err := registry.Call(context.Background(), "echo", `{"site":"example.com"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"site":"example.com","limit":0}`, text)
}

func TestRegistryErrors(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(echoTool("echo")))

	tests := []struct {
		name string
		tool string
		args string
		want error
	}{
		{"unknown tool", "nope", `{}`, ErrUnknownTool},
		{"malformed json", "echo", `{"site":`, ErrInvalidArguments},
		{"wrong type", "echo", `{"site":42}`, ErrInvalidArguments},
		{"missing required", "echo", `{}`, ErrInvalidArguments},
		{"empty arguments", "echo", ``, ErrInvalidArguments},
		{"out of range", "echo", `{"site":"a","limit":11}`, ErrInvalidArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Invoke(context.Background(), tt.tool, json.RawMessage(tt.args))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := registry.Call(context.Background(), "echo", `{"site":"fail"}`)
	assert.EqualError(t, err, "boom")
}

func TestRegistryDefinitions(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(echoTool("b_tool"), echoTool("a_tool")))

	defs := registry.Tools()
	require.Len(t, defs, 2)
	assert.Equal(t, "b_tool", defs[0].Name)
	assert.Equal(t, "object", defs[0].Parameters["type"])
	assert.Equal(t, []string{"site"}, defs[0].Parameters["required"])
	assert.Equal(t, []string{"a_tool", "b_tool"}, registry.Names())

	err := registry.Register(echoTool("a_tool"))
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestNormalizeSite(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "example.com", want: "https://example.com"},
		{in: "  example.com/blog  ", want: "https://example.com/blog"},
		{in: "//example.com", want: "https://example.com"},
		{in: "HTTP://example.com/#top", want: "http://example.com/"},
		{in: "https://example.com:8443/x", want: "https://example.com:8443/x"},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "https://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeSite(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
