package functions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tjfontaine/polyglot-functions/internal/config"
	"github.com/tjfontaine/polyglot-functions/internal/server"
	"github.com/tjfontaine/polyglot-functions/internal/speech"
)

var tracer = otel.Tracer("github.com/tjfontaine/polyglot-functions/internal/functions")

// TokenCounter counts the tokens a text encodes to.
type TokenCounter interface {
	Count(text string) (int, error)
}

// Handler serves the functions. It holds no per-request state.
type Handler struct {
	counter      TokenCounter
	recognizer   speech.Recognizer
	factorialMax int
	logger       *slog.Logger
}

func NewHandler(cfg config.FunctionsConfig, counter TokenCounter, recognizer speech.Recognizer, logger *slog.Logger) *Handler {
	return &Handler{
		counter:      counter,
		recognizer:   recognizer,
		factorialMax: cfg.FactorialMax,
		logger:       logger,
	}
}

// Routes registers every function on r.
func (h *Handler) Routes(r chi.Router) {
	factorial := h.function("Factorial", h.factorial)
	r.Get("/get_factorial/{number:-?[0-9]+}", factorial)
	r.Post("/get_factorial/{number:-?[0-9]+}", factorial)
	r.Get("/get_factorial", factorial)
	r.Post("/get_factorial", factorial)

	tokens := h.function("Tokens", h.tokens)
	r.Get("/get_tokens_number/{string}", tokens)
	r.Post("/get_tokens_number/{string}", tokens)
	r.Get("/get_tokens_number", tokens)
	r.Post("/get_tokens_number", tokens)

	r.Post("/transform_image", h.function("Image", h.transformImage))
	r.Post("/speech_to_text", h.function("Speech", h.speechToText))
}

// result is a successful function output.
type result struct {
	contentType string
	body        []byte
}

func textResult(s string) *result {
	return &result{contentType: "text/plain; charset=utf-8", body: []byte(s)}
}

func jsonResult(v any) (*result, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &result{contentType: "application/json", body: body}, nil
}

type functionFunc func(ctx context.Context, r *http.Request) (*result, error)

// function wraps fn in the request boundary: tracing, logging and the
// mapping of every error to a response.
func (h *Handler) function(name string, fn functionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "function."+name)
		defer span.End()
		span.SetAttributes(attribute.String("function.name", name))

		server.AddLogField(ctx, "function", name)
		h.logger.InfoContext(ctx, "function triggered",
			slog.String("function", name),
			slog.String("request_id", server.GetRequestID(ctx)),
		)

		res, err := fn(ctx, r.WithContext(ctx))
		if err != nil {
			status, body := errorResponse(err)
			server.AddError(ctx, err)
			span.RecordError(err)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, err.Error())
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			write(w, status, "text/plain; charset=utf-8", []byte(body))
			return
		}

		write(w, http.StatusOK, res.contentType, res.body)
	}
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
