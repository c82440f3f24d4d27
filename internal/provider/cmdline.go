package provider

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseSpec splits a shell-like command line into a stdio Spec.
func ParseSpec(id, commandLine string, extraArgs ...string) (Spec, error) {
	parts, err := SplitCommandLine(commandLine)
	if err != nil {
		return Spec{}, errors.Wrapf(err, "provider %s", id)
	}
	if len(parts) == 0 {
		return Spec{}, errors.Newf("provider %s: empty command", id)
	}
	args := append(parts[1:len(parts):len(parts)], extraArgs...)
	return Spec{ID: id, Command: parts[0], Args: args}, nil
}

// SplitCommandLine splits on unquoted whitespace. Single and double quotes
// group words and a backslash escapes the next rune.
func SplitCommandLine(input string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		escape  bool
		quoted  bool
	)
	for _, r := range input {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			quoted = true
		case r == ' ' || r == '\t' || r == '\n':
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}
	if escape {
		return nil, errors.New("unterminated escape sequence in command")
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote in command")
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args, nil
}
