// Package coerce binds raw string arguments to a tool's declared parameters.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

var (
	// ErrArityMismatch means fewer raw arguments than declared parameters.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrTypeCoercion means a raw argument could not be converted to its declared type.
	ErrTypeCoercion = errors.New("type coercion failed")
)

// Args holds typed argument values in parameter declaration order.
type Args = orderedmap.OrderedMap[string, any]

// Invocation is a call whose arguments fully satisfy the tool schema.
// It is only ever built by Coerce.
type Invocation struct {
	Tool registry.Tool
	Args *Args
}

// Map returns the arguments in the shape a provider call takes.
func (inv Invocation) Map() map[string]any {
	out := make(map[string]any, inv.Args.Len())
	for pair := inv.Args.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// String renders the arguments as "{a: 5, b: 3}" in declaration order.
func (inv Invocation) String() string {
	if inv.Args == nil {
		return "{}"
	}
	parts := make([]string, 0, inv.Args.Len())
	for pair := inv.Args.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s: %s", pair.Key, formatValue(pair.Value)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Coerce consumes raw arguments strictly in schema order: the Nth declared
// parameter takes the Nth raw argument. Raw arguments beyond the schema are
// dropped without error.
func Coerce(tool registry.Tool, raw []string) (Invocation, error) {
	args := orderedmap.New[string, any]()
	if tool.Schema == nil {
		return Invocation{Tool: tool, Args: args}, nil
	}

	i := 0
	for pair := tool.Schema.Oldest(); pair != nil; pair = pair.Next() {
		if i >= len(raw) {
			return Invocation{}, errors.Wrapf(ErrArityMismatch,
				"not enough parameters provided for %s: want %d, got %d", tool.Name, tool.Schema.Len(), len(raw))
		}
		v, err := Value(pair.Value, raw[i])
		if err != nil {
			return Invocation{}, errors.Wrapf(err, "parameter %s of %s", pair.Key, tool.Name)
		}
		args.Set(pair.Key, v)
		i++
	}
	return Invocation{Tool: tool, Args: args}, nil
}

// Value converts one raw token to the Go value for its declared type.
func Value(p registry.Param, raw string) (any, error) {
	switch p.Type {
	case registry.ParamInteger:
		n, err := parseInt(raw)
		if err != nil {
			return nil, err
		}
		return n, nil
	case registry.ParamNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrTypeCoercion, "%q is not a number", raw)
		}
		// JSON has no encoding for NaN or the infinities.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.Wrapf(ErrTypeCoercion, "%q is not a finite number", raw)
		}
		return f, nil
	case registry.ParamIntegerArray:
		list, err := parseIntList(raw)
		if err != nil {
			return nil, err
		}
		return list, nil
	case registry.ParamString, registry.ParamUnknown:
		return raw, nil
	default:
		return raw, nil
	}
}

func parseInt(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrTypeCoercion, "%q is not an integer", raw)
	}
	return n, nil
}

// parseIntList accepts "[1,2,3]" or a single bare element such as "7".
func parseIntList(raw string) ([]int64, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
		if s == "" {
			return []int64{}, nil
		}
		elems := strings.Split(s, ",")
		out := make([]int64, 0, len(elems))
		for _, e := range elems {
			n, err := parseInt(e)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	n, err := parseInt(s)
	if err != nil {
		return nil, err
	}
	return []int64{n}, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []int64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprint(x)
	}
}
