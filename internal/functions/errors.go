package functions

import (
	"errors"
	"fmt"
	"net/http"
)

// InputError is a missing or invalid payload. It maps to 400 and the caller
// can fix it by resubmitting.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return e.Message + " (Error: " + e.Err.Error() + ")"
	}
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func missingField(message string) error {
	return &InputError{Message: message, Err: ErrMissingField}
}

func invalidArgument(message string, err error) error {
	return &InputError{Message: message, Err: err}
}

var (
	// ErrMissingField marks a payload absent from both route and body.
	ErrMissingField = errors.New("missing field")

	// errRouteConstraint rejects a route value the route would not match.
	errRouteConstraint = errors.New("route constraint not satisfied")

	errBodyTooLarge = fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
)

// errorResponse resolves err into a status code and response body. Input
// errors keep their message; everything else is a processing failure whose
// text is forwarded verbatim.
func errorResponse(err error) (int, string) {
	var inErr *InputError
	switch {
	case errors.As(err, &inErr):
		if errors.Is(inErr.Err, ErrMissingField) {
			return http.StatusBadRequest, inErr.Message
		}
		return http.StatusBadRequest, inErr.Error()
	case errors.Is(err, errRouteConstraint):
		return http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	default:
		return http.StatusInternalServerError, "Internal error: " + err.Error()
	}
}
