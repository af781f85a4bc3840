package server

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/tjfontaine/polyglot-functions/internal/auth"
)

// CORSMiddleware allows browser callers from origins to reach the functions.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.FunctionKeyHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
}
