// Package registry holds the tools each provider declared at start-up.
package registry

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrProviderUnavailable means a provider could not be reached to list its tools.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ParamType is the closed set of parameter types the coercer understands.
type ParamType int

const (
	// ParamUnknown covers any declared type the coercer does not convert.
	// Values for it are passed through as the raw string.
	ParamUnknown ParamType = iota
	ParamString
	ParamInteger
	ParamNumber
	ParamIntegerArray
)

func (p ParamType) String() string {
	switch p {
	case ParamString:
		return "string"
	case ParamInteger:
		return "integer"
	case ParamNumber:
		return "number"
	case ParamIntegerArray:
		return "array"
	default:
		return "unknown"
	}
}

// Param is one declared parameter.
type Param struct {
	Type ParamType
	// JSONType is the type name as the provider declared it.
	JSONType string
}

// Label is what the catalogue shows the model for this parameter.
func (p Param) Label() string {
	if p.Type == ParamUnknown && p.JSONType != "" {
		return p.JSONType
	}
	return p.Type.String()
}

// Schema maps parameter names to types in declaration order.
type Schema = orderedmap.OrderedMap[string, Param]

// Tool is an immutable tool declaration, identified by (Provider, Name).
type Tool struct {
	Provider    string
	Name        string
	Description string
	Schema      *Schema
}

// Params returns the declared parameter names in order.
func (t Tool) Params() []string {
	if t.Schema == nil {
		return nil
	}
	names := make([]string, 0, t.Schema.Len())
	for pair := t.Schema.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// ParseParam reads the JSON Schema fragment of a single property.
func ParseParam(property any) Param {
	m, _ := property.(map[string]any)
	jsonType, _ := m["type"].(string)
	switch jsonType {
	case "string":
		return Param{Type: ParamString, JSONType: jsonType}
	case "integer":
		return Param{Type: ParamInteger, JSONType: jsonType}
	case "number":
		return Param{Type: ParamNumber, JSONType: jsonType}
	case "array":
		return Param{Type: ParamIntegerArray, JSONType: jsonType}
	case "":
		return Param{Type: ParamUnknown, JSONType: "unknown"}
	default:
		return Param{Type: ParamUnknown, JSONType: jsonType}
	}
}

// FromMCP converts an MCP tool declaration. MCP schemas arrive as a Go map, so
// the declared order is taken from the required list, with any optional
// parameters appended in name order.
func FromMCP(provider string, t mcp.Tool) Tool {
	schema := orderedmap.New[string, Param]()
	props := t.InputSchema.Properties

	for _, name := range t.InputSchema.Required {
		prop, ok := props[name]
		if !ok {
			continue
		}
		schema.Set(name, ParseParam(prop))
	}

	var optional []string
	for name := range props {
		if _, seen := schema.Get(name); !seen {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	for _, name := range optional {
		schema.Set(name, ParseParam(props[name]))
	}

	return Tool{
		Provider:    provider,
		Name:        t.Name,
		Description: t.Description,
		Schema:      schema,
	}
}

// Lister is the part of a provider session the registry needs.
type Lister interface {
	ID() string
	ListTools(ctx context.Context) ([]mcp.Tool, error)
}

// Fetch asks a provider for its tools, once.
func Fetch(ctx context.Context, provider Lister) ([]Tool, error) {
	declared, err := provider.ListTools(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "list tools of %s", provider.ID()), ErrProviderUnavailable)
	}
	tools := make([]Tool, 0, len(declared))
	for _, t := range declared {
		tools = append(tools, FromMCP(provider.ID(), t))
	}
	return tools, nil
}

// Catalogue is every provider's tools, in provider registration order.
type Catalogue struct {
	order []string
	tools map[string][]Tool
}

func NewCatalogue() *Catalogue {
	return &Catalogue{tools: make(map[string][]Tool)}
}

// Build fetches the tools of every provider. Any unreachable provider fails the build.
func Build(ctx context.Context, providers ...Lister) (*Catalogue, error) {
	c := NewCatalogue()
	for _, p := range providers {
		tools, err := Fetch(ctx, p)
		if err != nil {
			return nil, err
		}
		c.Add(p.ID(), tools)
	}
	return c, nil
}

// Add registers the tools of one provider, replacing any earlier set.
func (c *Catalogue) Add(provider string, tools []Tool) {
	if _, ok := c.tools[provider]; !ok {
		c.order = append(c.order, provider)
	}
	c.tools[provider] = tools
}

func (c *Catalogue) Providers() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalogue) Tools(provider string) []Tool {
	return c.tools[provider]
}

func (c *Catalogue) HasProvider(provider string) bool {
	_, ok := c.tools[provider]
	return ok
}

// Lookup finds a tool by provider and name. Names are only unique per provider.
func (c *Catalogue) Lookup(provider, name string) (Tool, bool) {
	for _, t := range c.tools[provider] {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Len is the total number of tools across providers.
func (c *Catalogue) Len() int {
	n := 0
	for _, tools := range c.tools {
		n += len(tools)
	}
	return n
}
