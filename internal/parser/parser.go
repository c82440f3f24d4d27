package parser

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	FunctionCallMarker = "FUNCTION_CALL:"
	FinalAnswerMarker  = "FINAL_ANSWER:"
)

// ErrProtocolViolation is returned for model output that matches neither marker.
var ErrProtocolViolation = errors.New("protocol violation")

// Kind says which variant an Instruction holds.
type Kind int

const (
	Malformed Kind = iota
	FunctionCall
	FinalAnswer
)

func (k Kind) String() string {
	switch k {
	case FunctionCall:
		return "function_call"
	case FinalAnswer:
		return "final_answer"
	default:
		return "malformed"
	}
}

// Instruction is one parsed model response.
type Instruction struct {
	Kind Kind

	// Provider, Tool and Args are set for FunctionCall.
	Provider string
	Tool     string
	Args     []string

	// Answer is set for FinalAnswer.
	Answer string

	// Raw is the text the instruction was parsed from.
	Raw string
}

// Err returns ErrProtocolViolation for Malformed instructions, nil otherwise.
func (i Instruction) Err() error {
	if i.Kind != Malformed {
		return nil
	}
	return errors.Wrapf(ErrProtocolViolation, "unparseable model output %q", i.Raw)
}

// Parser turns raw model text into an Instruction.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts the authoritative instruction. The first FUNCTION_CALL line
// wins over everything else in the text, including a FINAL_ANSWER line.
// Without one, the whole trimmed text must start with FINAL_ANSWER.
func (p *Parser) Parse(text string) Instruction {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, FunctionCallMarker) {
			return parseFunctionCall(line)
		}
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, FinalAnswerMarker) {
		return Instruction{
			Kind:   FinalAnswer,
			Answer: strings.TrimSpace(strings.TrimPrefix(trimmed, FinalAnswerMarker)),
			Raw:    trimmed,
		}
	}

	return Instruction{Kind: Malformed, Raw: trimmed}
}

// parseFunctionCall splits "FUNCTION_CALL: provider|tool|arg|...". Only the
// first colon separates the marker, so arguments may contain colons.
func parseFunctionCall(line string) Instruction {
	_, payload, _ := strings.Cut(line, ":")
	parts := strings.Split(payload, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Instruction{Kind: Malformed, Raw: line}
	}
	return Instruction{
		Kind:     FunctionCall,
		Provider: parts[0],
		Tool:     parts[1],
		Args:     parts[2:],
		Raw:      line,
	}
}
