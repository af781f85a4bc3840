package server

import (
	"net/http"

	"github.com/tjfontaine/polyglot-functions/internal/auth"
)

// AuthMiddleware rejects requests that do not present a configured function
// key in the x-functions-key header or the code query parameter.
func AuthMiddleware(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := auth.ExtractFunctionKey(r)
			if err == nil {
				err = authenticator.Validate(key)
			}
			if err != nil {
				AddError(r.Context(), err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
