package prompt

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

func integer() mcp.PropertyOption {
	return func(schema map[string]any) { schema["type"] = "integer" }
}

func testCatalogue() *registry.Catalogue {
	c := registry.NewCatalogue()
	c.Add("Calculator", []registry.Tool{
		registry.FromMCP("Calculator", mcp.NewTool("add",
			mcp.WithDescription("Add two numbers"),
			mcp.WithNumber("a", mcp.Required(), integer()),
			mcp.WithNumber("b", mcp.Required(), integer()),
		)),
		registry.FromMCP("Calculator", mcp.NewTool("int_list_to_exponential_sum",
			mcp.WithDescription("Return sum of exponentials of numbers in a list"),
			mcp.WithArray("int_list", mcp.Required(), mcp.Items(map[string]any{"type": "integer"})),
		)),
	})
	c.Add("Gmail", []registry.Tool{
		registry.FromMCP("Gmail", mcp.NewTool("get_unread_emails")),
	})
	return c
}

func TestCatalogue(t *testing.T) {
	got := Catalogue(testCatalogue())
	want := strings.Join([]string{
		"1. Calculator - add(a: integer, b: integer) - Add two numbers",
		"2. Calculator - int_list_to_exponential_sum(int_list: array) - Return sum of exponentials of numbers in a list",
		"1. Gmail - get_unread_emails(no parameters) - No description available",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSystemIsDeterministic(t *testing.T) {
	c := testCatalogue()
	opts := Options{Recipient: "someone@example.com"}

	first := System(c, opts)
	second := System(c, opts)
	assert.Equal(t, first, second)

	assert.Contains(t, first, OUTPUT_CONTRACT)
	assert.Contains(t, first, "someone@example.com")
	assert.NotContains(t, first, "{{")
}

func TestSystemWithoutRecipient(t *testing.T) {
	out := System(testCatalogue(), Options{})
	assert.Contains(t, out, UNKNOWN_RECIPIENT)
}

func TestOutputContractNamesMarkers(t *testing.T) {
	assert.Contains(t, OUTPUT_CONTRACT, "FUNCTION_CALL: <provider_id>|<tool_name>|<arg1>|<arg2>|...\n")
	assert.Contains(t, OUTPUT_CONTRACT, "FINAL_ANSWER: <text>\n")
	assert.Contains(t, OUTPUT_CONTRACT, "Exactly one line, no surrounding prose, no parentheses in `tool_name`.")
}

func TestTurnQuery(t *testing.T) {
	t.Run("first turn is the task alone", func(t *testing.T) {
		assert.Equal(t, "sum 1 and 2", TurnQuery("sum 1 and 2", nil))
	})

	t.Run("later turns carry all records", func(t *testing.T) {
		got := TurnQuery("task", []string{"first.", "second."})
		assert.Equal(t, "task\n\nfirst. second.  What should I do next?", got)
	})
}

func TestRender(t *testing.T) {
	out := Render("SYSTEM", "task")
	require.True(t, strings.HasPrefix(out, "SYSTEM"))
	assert.True(t, strings.HasSuffix(out, "\n\nQuery: task"))
}
