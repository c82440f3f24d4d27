package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eriksjaastad/mcp-mail-math/internal/provider"
	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

func texts(t *testing.T, res *mcp.CallToolResult) []string {
	t.Helper()
	out := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		tc, ok := mcp.AsTextContent(c)
		require.True(t, ok, "content %T is not text", c)
		out = append(out, tc.Text)
	}
	return out
}

func calculatorSession(t *testing.T) *provider.Session {
	t.Helper()
	s := server.NewMCPServer("Calculator", "1.0.0", server.WithToolCapabilities(false))
	RegisterCalculatorTools(s)

	sess, err := provider.NewInProcess(context.Background(), "Calculator", s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestCalculatorSchemas(t *testing.T) {
	sess := calculatorSession(t)

	tools, err := registry.Fetch(context.Background(), sess)
	require.NoError(t, err)

	byName := map[string]registry.Tool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	assert.Len(t, byName, 18)

	add := byName["add"]
	assert.Equal(t, []string{"a", "b"}, add.Params())
	p, _ := add.Schema.Get("a")
	assert.Equal(t, registry.ParamInteger, p.Type)

	list := byName["int_list_to_exponential_sum"]
	p, _ = list.Schema.Get("int_list")
	assert.Equal(t, registry.ParamIntegerArray, p.Type)

	str := byName["strings_to_chars_to_int"]
	p, _ = str.Schema.Get("string")
	assert.Equal(t, registry.ParamString, p.Type)
}

func TestCalculatorCalls(t *testing.T) {
	sess := calculatorSession(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tool string
		args map[string]any
		want []string
	}{
		{"add", "add", map[string]any{"a": int64(5), "b": int64(3)}, []string{"8"}},
		{"subtract", "subtract", map[string]any{"a": 5, "b": 8}, []string{"-3"}},
		{"multiply", "multiply", map[string]any{"a": 6, "b": 7}, []string{"42"}},
		{"divide", "divide", map[string]any{"a": 7, "b": 2}, []string{"3.5"}},
		{"power", "power", map[string]any{"a": 2, "b": 70}, []string{"1180591620717411303424"}},
		{"negative power", "power", map[string]any{"a": 2, "b": -1}, []string{"0.5"}},
		{"remainder", "remainder", map[string]any{"a": -7, "b": 3}, []string{"2"}},
		{"mine", "mine", map[string]any{"a": 10, "b": 3}, []string{"4"}},
		{"sqrt", "sqrt", map[string]any{"a": 16}, []string{"4"}},
		{"cbrt", "cbrt", map[string]any{"a": 27}, []string{"3"}},
		{"factorial", "factorial", map[string]any{"a": 5}, []string{"120"}},
		{"log", "log", map[string]any{"a": 1}, []string{"0"}},
		{"sin", "sin", map[string]any{"a": 0}, []string{"0"}},
		{"add_list", "add_list", map[string]any{"l": []int64{1, 2, 3}}, []string{"6"}},
		{"chars", "strings_to_chars_to_int", map[string]any{"string": "INDIA"}, []string{"73", "78", "68", "73", "65"}},
		{"exp sum", "int_list_to_exponential_sum", map[string]any{"int_list": []int64{0, 0}}, []string{"2"}},
		{"fibonacci", "fibonacci_numbers", map[string]any{"n": 7}, []string{"0", "1", "1", "2", "3", "5", "8"}},
		{"fibonacci empty", "fibonacci_numbers", map[string]any{"n": 0}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := sess.CallTool(ctx, tt.tool, tt.args)
			require.NoError(t, err)
			assert.False(t, res.IsError)
			assert.Equal(t, tt.want, texts(t, res))
		})
	}
}

func TestCalculatorDomainErrors(t *testing.T) {
	sess := calculatorSession(t)
	ctx := context.Background()

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"divide", map[string]any{"a": 1, "b": 0}},
		{"remainder", map[string]any{"a": 1, "b": 0}},
		{"factorial", map[string]any{"a": -1}},
		{"log", map[string]any{"a": 0}},
		{"sqrt", map[string]any{"a": -4}},
		{"add", map[string]any{"a": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res, err := sess.CallTool(ctx, tt.tool, tt.args)
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}
