package executor

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Result is the shape a provider answered with.
type Result interface {
	// Normalize renders the result as the single line fed back to the model.
	Normalize() string
	isResult()
}

// TextList is a result made of content items.
type TextList []string

// Scalar is a lone textual payload.
type Scalar string

// Opaque is anything else.
type Opaque struct {
	Value any
}

func (l TextList) Normalize() string {
	return "[" + strings.Join(l, ", ") + "]"
}

func (s Scalar) Normalize() string {
	return string(s)
}

func (o Opaque) Normalize() string {
	return fmt.Sprint(o.Value)
}

func (TextList) isResult() {}
func (Scalar) isResult()   {}
func (Opaque) isResult()   {}

// Classify maps a tool call result onto Result. Content items win; a result
// carrying only structured content is a Scalar when it is a string and Opaque
// otherwise.
func Classify(res *mcp.CallToolResult) Result {
	if res == nil {
		return Opaque{Value: nil}
	}
	if len(res.Content) == 0 && res.StructuredContent != nil {
		if s, ok := res.StructuredContent.(string); ok {
			return Scalar(s)
		}
		return Opaque{Value: res.StructuredContent}
	}
	items := make(TextList, 0, len(res.Content))
	for _, c := range res.Content {
		items = append(items, itemText(c))
	}
	return items
}

func itemText(c mcp.Content) string {
	if tc, ok := mcp.AsTextContent(c); ok {
		return tc.Text
	}
	if er, ok := mcp.AsEmbeddedResource(c); ok {
		if tr, ok := mcp.AsTextResourceContents(er.Resource); ok {
			return tr.Text
		}
	}
	return fmt.Sprint(c)
}
