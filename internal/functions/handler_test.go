package functions

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/polyglot-functions/internal/config"
	"github.com/tjfontaine/polyglot-functions/internal/tokens"
)

type stubRecognizer struct {
	text string
	err  error
	got  []byte
}

func (s *stubRecognizer) Recognize(_ context.Context, pcm []byte) (string, error) {
	s.got = pcm
	return s.text, s.err
}

type failingCounter struct{}

func (failingCounter) Count(string) (int, error) {
	return 0, errors.New("tokenizer unavailable")
}

func newTestRouter(t *testing.T, counter TokenCounter, recognizer *stubRecognizer) http.Handler {
	t.Helper()

	if counter == nil {
		counter = tokens.NewCounter("cl100k_base")
	}
	if recognizer == nil {
		recognizer = &stubRecognizer{}
	}

	h := NewHandler(
		config.FunctionsConfig{FactorialMax: 1000},
		counter,
		recognizer,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Factorial
// =============================================================================

func TestFactorial(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "1"},
		{1, "1"},
		{2, "2"},
		{5, "120"},
		{10, "3628800"},
		{25, "15511210043330985984000000"},
	}

	for _, tt := range tests {
		got, err := Factorial(tt.n)
		if err != nil {
			t.Fatalf("Factorial(%d) error = %v", tt.n, err)
		}
		if got.String() != tt.want {
			t.Errorf("Factorial(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestFactorial_ProductOfRange(t *testing.T) {
	for n := int64(2); n <= 30; n++ {
		prev, _ := Factorial(n - 1)
		got, _ := Factorial(n)
		if got.Cmp(prev.Mul(prev, big.NewInt(n))) != 0 {
			t.Errorf("Factorial(%d) != %d * Factorial(%d)", n, n, n-1)
		}
	}
}

func TestFactorial_Negative(t *testing.T) {
	for _, n := range []int64{-1, -3, -100} {
		if _, err := Factorial(n); !errors.Is(err, ErrNegative) {
			t.Errorf("Factorial(%d) error = %v, want ErrNegative", n, err)
		}
	}
}

func TestFactorialEndpoint(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "json body",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 5}`,
			wantStatus: http.StatusOK,
			wantBody:   "The factorial of 5 is 120.",
		},
		{
			name:       "route parameter",
			method:     "GET",
			target:     "/api/get_factorial/6",
			wantStatus: http.StatusOK,
			wantBody:   "The factorial of 6 is 720.",
		},
		{
			name:       "route parameter wins over body",
			method:     "POST",
			target:     "/api/get_factorial/3",
			body:       `{"number": 5}`,
			wantStatus: http.StatusOK,
			wantBody:   "The factorial of 3 is 6.",
		},
		{
			name:       "zero",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 0}`,
			wantStatus: http.StatusOK,
			wantBody:   "The factorial of 0 is 1.",
		},
		{
			name:       "numeric string",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": "4"}`,
			wantStatus: http.StatusOK,
			wantBody:   "The factorial of 4 is 24.",
		},
		{
			name:       "negative body",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": -3}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a positive integer. (Error: factorial is not defined for negative numbers)",
		},
		{
			name:       "negative route",
			method:     "GET",
			target:     "/api/get_factorial/-3",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty body",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a positive integer.",
		},
		{
			name:       "no body",
			method:     "POST",
			target:     "/api/get_factorial",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a positive integer.",
		},
		{
			name:       "malformed json",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": `,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a positive integer.",
		},
		{
			name:       "fraction",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 2.5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "integral float",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 5.0}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `Please provide a positive integer. (Error: invalid literal for integer: "5.0")`,
		},
		{
			name:       "exponent",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 1e2}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `Please provide a positive integer. (Error: invalid literal for integer: "1e2")`,
		},
		{
			name:       "boolean",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "above maximum",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 1001}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "huge number",
			method:     "POST",
			target:     "/api/get_factorial",
			body:       `{"number": 123456789012345678901234567890}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-integer route",
			method:     "GET",
			target:     "/api/get_factorial/abc",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

// =============================================================================
// Tokens
// =============================================================================

func TestTokensEndpoint(t *testing.T) {
	counter := tokens.NewCounter("cl100k_base")
	router := newTestRouter(t, counter, nil)

	want, err := counter.Count("hello world!")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	wantBody := "There are " + strconv.Itoa(want) + " tokens in 'hello world!'."

	rec := do(t, router, "POST", "/api/get_tokens_number", `{"string": "hello world!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != wantBody {
		t.Errorf("body = %q, want %q", rec.Body.String(), wantBody)
	}

	rec = do(t, router, "GET", "/api/get_tokens_number/hello%20world%21", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("route status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != wantBody {
		t.Errorf("route body = %q, want %q", rec.Body.String(), wantBody)
	}
}

func TestTokensEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		counter    TokenCounter
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing string",
			method:     "POST",
			target:     "/api/get_tokens_number",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a valid string.",
		},
		{
			name:       "empty string",
			method:     "POST",
			target:     "/api/get_tokens_number",
			body:       `{"string": ""}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a valid string.",
		},
		{
			name:       "not a string",
			method:     "POST",
			target:     "/api/get_tokens_number",
			body:       `{"string": 42}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "route too long",
			method:     "GET",
			target:     "/api/get_tokens_number/" + strings.Repeat("a", 1001),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "tokenizer failure",
			counter:    failingCounter{},
			method:     "POST",
			target:     "/api/get_tokens_number",
			body:       `{"string": "hello"}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal error: tokenizer unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.counter, nil)
			rec := do(t, router, tt.method, tt.target, tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

// =============================================================================
// Image
// =============================================================================

func TestTransformImageEndpoint(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 7, 5))
	for x := 0; x < 7; x++ {
		for y := 0; y < 5; y++ {
			src.Set(x, y, color.RGBA{R: uint8(30 * x), G: uint8(40 * y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"image": base64.StdEncoding.EncodeToString(buf.Bytes())})
	rec := do(t, newTestRouter(t, nil, nil), "POST", "/api/transform_image", string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp imageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		t.Fatalf("response image is not base64: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("response image is not png: %v", err)
	}
	if _, ok := out.(*image.Gray); !ok {
		t.Errorf("response image is %T, want *image.Gray", out)
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
}

func TestTransformImageEndpoint_Errors(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPrefix string
	}{
		{
			name:       "missing image",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantPrefix: "Please provide a json with a 'image' key containing a base64 string.",
		},
		{
			name:       "not json",
			body:       `image=abc`,
			wantStatus: http.StatusBadRequest,
			wantPrefix: "Please provide a json with a 'image' key",
		},
		{
			name:       "malformed base64",
			body:       `{"image": "%%%not-base64%%%"}`,
			wantStatus: http.StatusInternalServerError,
			wantPrefix: "Internal error: invalid base64 payload: illegal base64 data",
		},
		{
			name:       "not an image",
			body:       `{"image": "` + base64.StdEncoding.EncodeToString([]byte("plain text")) + `"}`,
			wantStatus: http.StatusInternalServerError,
			wantPrefix: "Internal error: cannot identify image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, "POST", "/api/transform_image", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.HasPrefix(rec.Body.String(), tt.wantPrefix) {
				t.Errorf("body = %q, want prefix %q", rec.Body.String(), tt.wantPrefix)
			}
		})
	}
}

// =============================================================================
// Speech
// =============================================================================

func TestSpeechToTextEndpoint(t *testing.T) {
	pcm := []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00}
	recognizer := &stubRecognizer{text: "turn on the lights"}
	router := newTestRouter(t, nil, recognizer)

	body, _ := json.Marshal(map[string]string{"speech": base64.StdEncoding.EncodeToString(pcm)})
	rec := do(t, router, "POST", "/api/speech_to_text", string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"text":"turn on the lights"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
	if !bytes.Equal(recognizer.got, pcm) {
		t.Errorf("recognizer got %v, want %v", recognizer.got, pcm)
	}
}

func TestSpeechToTextEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		recognizer *stubRecognizer
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing speech",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Please provide a json with a 'speech' key containing a base64 string.",
		},
		{
			name:       "malformed base64",
			body:       `{"speech": "abc"}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal error: invalid base64 payload: illegal base64 data at input byte 0",
		},
		{
			name:       "recognizer failure",
			recognizer: &stubRecognizer{err: errors.New("speech service returned status 401: denied")},
			body:       `{"speech": "AAA="}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal error: speech service returned status 401: denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, nil, tt.recognizer)
			rec := do(t, router, "POST", "/api/speech_to_text", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

// =============================================================================
// Shared pipeline
// =============================================================================

func TestMissingFieldIsBadRequestEverywhere(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	for _, target := range []string{
		"/api/get_factorial",
		"/api/get_tokens_number",
		"/api/transform_image",
		"/api/speech_to_text",
	} {
		for _, body := range []string{"", "{}", `{"other": 1}`, "[1,2]", `{"number": null, "string": null, "image": null, "speech": null}`} {
			rec := do(t, router, "POST", target, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST %s with %q: status = %d, want 400", target, body, rec.Code)
			}
		}
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	body := `{"image": "` + strings.Repeat("A", MaxBodyBytes) + `"}`

	for _, target := range []string{"/api/get_factorial", "/api/transform_image"} {
		rec := do(t, router, "POST", target, body)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("POST %s: status = %d, want 413", target, rec.Code)
		}
		if rec.Body.String() != "request body exceeds 33554432 bytes" {
			t.Errorf("POST %s: body = %q", target, rec.Body.String())
		}
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing field",
			err:        missingField("give me a value"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "give me a value",
		},
		{
			name:       "invalid argument",
			err:        invalidArgument("give me a value", errors.New("bad")),
			wantStatus: http.StatusBadRequest,
			wantBody:   "give me a value (Error: bad)",
		},
		{
			name:       "route constraint",
			err:        errRouteConstraint,
			wantStatus: http.StatusNotFound,
			wantBody:   "Not Found",
		},
		{
			name:       "body too large",
			err:        errBodyTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   "request body exceeds 33554432 bytes",
		},
		{
			name:       "processing failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			if status != tt.wantStatus || body != tt.wantBody {
				t.Errorf("errorResponse() = %d %q, want %d %q", status, body, tt.wantStatus, tt.wantBody)
			}
		})
	}
}
