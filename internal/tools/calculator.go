package tools

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
)

// integer narrows a number property to the JSON Schema "integer" type.
func integer() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = "integer"
	}
}

func integerItems() mcp.PropertyOption {
	return mcp.Items(map[string]any{"type": "integer"})
}

func intParam(name, desc string) mcp.ToolOption {
	return mcp.WithNumber(name, mcp.Required(), integer(), mcp.Description(desc))
}

type binaryOp func(a, b int) (*mcp.CallToolResult, error)

type unaryOp func(a int) (*mcp.CallToolResult, error)

func RegisterCalculatorTools(s *server.MCPServer) {
	binary := func(name, desc string, op binaryOp) {
		s.AddTool(mcp.NewTool(name,
			mcp.WithDescription(desc),
			intParam("a", "First operand"),
			intParam("b", "Second operand"),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			a, err := request.RequireInt("a")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			b, err := request.RequireInt("b")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			logger.Info("Calculator call", "tool", name, "a", a, "b", b)
			return op(a, b)
		})
	}
	unary := func(name, desc string, op unaryOp) {
		s.AddTool(mcp.NewTool(name,
			mcp.WithDescription(desc),
			intParam("a", "Operand"),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			a, err := request.RequireInt("a")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			logger.Info("Calculator call", "tool", name, "a", a)
			return op(a)
		})
	}

	binary("add", "Add two numbers", HandleAdd)
	binary("subtract", "Subtract two numbers", HandleSubtract)
	binary("multiply", "Multiply two numbers", HandleMultiply)
	binary("divide", "Divide two numbers", HandleDivide)
	binary("power", "Power of two numbers", HandlePower)
	binary("remainder", "Remainder of two numbers division", HandleRemainder)
	binary("mine", "Special mining tool", HandleMine)

	unary("sqrt", "Square root of a number", HandleSqrt)
	unary("cbrt", "Cube root of a number", HandleCbrt)
	unary("factorial", "Factorial of a number", HandleFactorial)
	unary("log", "Natural log of a number", HandleLog)
	unary("sin", "Sin of a number", func(a int) (*mcp.CallToolResult, error) {
		return floatResult(math.Sin(float64(a))), nil
	})
	unary("cos", "Cos of a number", func(a int) (*mcp.CallToolResult, error) {
		return floatResult(math.Cos(float64(a))), nil
	})
	unary("tan", "Tan of a number", func(a int) (*mcp.CallToolResult, error) {
		return floatResult(math.Tan(float64(a))), nil
	})

	s.AddTool(mcp.NewTool("add_list",
		mcp.WithDescription("Add all numbers in a list"),
		mcp.WithArray("l", mcp.Required(), integerItems(), mcp.Description("Numbers to add")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l, err := request.RequireIntSlice("l")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("Calculator call", "tool", "add_list", "len", len(l))
		return HandleAddList(l)
	})

	s.AddTool(mcp.NewTool("strings_to_chars_to_int",
		mcp.WithDescription("Return the ASCII values of the characters in a word"),
		mcp.WithString("string", mcp.Required(), mcp.Description("Word to convert")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		str, err := request.RequireString("string")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("Calculator call", "tool", "strings_to_chars_to_int", "string", str)
		return HandleStringsToCharsToInt(str)
	})

	s.AddTool(mcp.NewTool("int_list_to_exponential_sum",
		mcp.WithDescription("Return sum of exponentials of numbers in a list"),
		mcp.WithArray("int_list", mcp.Required(), integerItems(), mcp.Description("Exponents")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l, err := request.RequireIntSlice("int_list")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("Calculator call", "tool", "int_list_to_exponential_sum", "len", len(l))
		return HandleExponentialSum(l)
	})

	s.AddTool(mcp.NewTool("fibonacci_numbers",
		mcp.WithDescription("Return the first n Fibonacci Numbers"),
		intParam("n", "How many numbers to return"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := request.RequireInt("n")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("Calculator call", "tool", "fibonacci_numbers", "n", n)
		return HandleFibonacci(n)
	})
}

func HandleAdd(a, b int) (*mcp.CallToolResult, error) {
	return intResult(a + b), nil
}

func HandleSubtract(a, b int) (*mcp.CallToolResult, error) {
	return intResult(a - b), nil
}

func HandleMultiply(a, b int) (*mcp.CallToolResult, error) {
	return intResult(a * b), nil
}

func HandleDivide(a, b int) (*mcp.CallToolResult, error) {
	if b == 0 {
		return mcp.NewToolResultError("division by zero"), nil
	}
	return floatResult(float64(a) / float64(b)), nil
}

func HandlePower(a, b int) (*mcp.CallToolResult, error) {
	if b < 0 {
		return floatResult(math.Pow(float64(a), float64(b))), nil
	}
	n := new(big.Int).Exp(big.NewInt(int64(a)), big.NewInt(int64(b)), nil)
	return mcp.NewToolResultText(n.String()), nil
}

func HandleRemainder(a, b int) (*mcp.CallToolResult, error) {
	if b == 0 {
		return mcp.NewToolResultError("modulo by zero"), nil
	}
	// floored modulo: the result takes the sign of the divisor
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return intResult(r), nil
}

func HandleMine(a, b int) (*mcp.CallToolResult, error) {
	return intResult(a - b - b), nil
}

func HandleSqrt(a int) (*mcp.CallToolResult, error) {
	if a < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("math domain error: sqrt(%d)", a)), nil
	}
	return floatResult(math.Sqrt(float64(a))), nil
}

func HandleCbrt(a int) (*mcp.CallToolResult, error) {
	return floatResult(math.Cbrt(float64(a))), nil
}

func HandleFactorial(a int) (*mcp.CallToolResult, error) {
	if a < 0 {
		return mcp.NewToolResultError("factorial() not defined for negative values"), nil
	}
	n := new(big.Int).MulRange(1, int64(a))
	return mcp.NewToolResultText(n.String()), nil
}

func HandleLog(a int) (*mcp.CallToolResult, error) {
	if a <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("math domain error: log(%d)", a)), nil
	}
	return floatResult(math.Log(float64(a))), nil
}

func HandleAddList(l []int) (*mcp.CallToolResult, error) {
	sum := 0
	for _, n := range l {
		sum += n
	}
	return intResult(sum), nil
}

// HandleStringsToCharsToInt returns one content item per character.
func HandleStringsToCharsToInt(s string) (*mcp.CallToolResult, error) {
	content := make([]mcp.Content, 0, len(s))
	for _, r := range s {
		content = append(content, mcp.NewTextContent(strconv.Itoa(int(r))))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func HandleExponentialSum(l []int) (*mcp.CallToolResult, error) {
	sum := 0.0
	for _, n := range l {
		sum += math.Exp(float64(n))
	}
	return floatResult(sum), nil
}

// HandleFibonacci returns one content item per number, starting 0, 1.
func HandleFibonacci(n int) (*mcp.CallToolResult, error) {
	if n <= 0 {
		return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
	}
	content := make([]mcp.Content, 0, n)
	a, b := big.NewInt(0), big.NewInt(1)
	for i := 0; i < n; i++ {
		content = append(content, mcp.NewTextContent(a.String()))
		a.Add(a, b)
		a, b = b, a
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func intResult(n int) *mcp.CallToolResult {
	return mcp.NewToolResultText(strconv.Itoa(n))
}

func floatResult(f float64) *mcp.CallToolResult {
	return mcp.NewToolResultText(strconv.FormatFloat(f, 'g', -1, 64))
}
