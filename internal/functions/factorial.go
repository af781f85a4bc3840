package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
)

const factorialMissing = "Please provide a positive integer."

var (
	ErrNegative = errors.New("factorial is not defined for negative numbers")
	ErrTooLarge = errors.New("number exceeds the configured maximum")
)

// Factorial returns the product of 1..n by repeated multiplication.
// Factorial(0) and Factorial(1) are 1.
func Factorial(n int64) (*big.Int, error) {
	if n < 0 {
		return nil, ErrNegative
	}

	f := big.NewInt(1)
	if n < 2 {
		return f, nil
	}
	for i := int64(2); i <= n; i++ {
		f.Mul(f, big.NewInt(i))
	}
	return f, nil
}

func (h *Handler) factorial(_ context.Context, r *http.Request) (*result, error) {
	n, err := h.numberField(r)
	if err != nil {
		return nil, err
	}

	f, err := Factorial(n)
	if err != nil {
		return nil, invalidArgument(factorialMissing, err)
	}
	return textResult(fmt.Sprintf("The factorial of %d is %s.", n, f.String())), nil
}

// numberField extracts the integer payload. The body may carry a JSON
// number without a fractional part or a numeric string.
func (h *Handler) numberField(r *http.Request) (int64, error) {
	text := routeParam(r, "number")
	if text == "" {
		raw, ok, err := bodyField(r, "number")
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, missingField(factorialMissing)
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return 0, invalidArgument(factorialMissing, err)
		}
		switch v := v.(type) {
		case json.Number:
			text = v.String()
		case string:
			text = strings.TrimSpace(v)
		default:
			return 0, invalidArgument(factorialMissing, fmt.Errorf("number must be an integer, got %s", raw))
		}
		if text == "" {
			return 0, missingField(factorialMissing)
		}
	}

	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return 0, invalidArgument(factorialMissing, fmt.Errorf("invalid literal for integer: %q", text))
	}
	if n.Sign() < 0 {
		return 0, invalidArgument(factorialMissing, ErrNegative)
	}
	if h.factorialMax > 0 && n.Cmp(big.NewInt(int64(h.factorialMax))) > 0 {
		return 0, invalidArgument(factorialMissing, fmt.Errorf("%w (%d)", ErrTooLarge, h.factorialMax))
	}
	if !n.IsInt64() {
		return 0, invalidArgument(factorialMissing, ErrTooLarge)
	}
	return n.Int64(), nil
}
