package functions

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"
)

const (
	tokensMissing = "Please provide a valid string."

	// maxRouteString is the longest string accepted in the route.
	maxRouteString = 1000
)

func (h *Handler) tokens(_ context.Context, r *http.Request) (*result, error) {
	if v := routeParam(r, "string"); utf8.RuneCountInString(v) > maxRouteString {
		return nil, errRouteConstraint
	}

	text, err := stringField(r, "string", tokensMissing)
	if err != nil {
		return nil, err
	}

	n, err := h.counter.Count(text)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("There are %d tokens in '%s'.", n, text)), nil
}
