// Package config loads the process-wide configuration for the functions host.
package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Speech    SpeechConfig    `koanf:"speech"`
	Functions FunctionsConfig `koanf:"functions"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
	RateLimit   int           `koanf:"rate_limit"` // requests per minute per IP, 0 disables
}

// AuthConfig holds the function keys. With no keys configured every route is anonymous.
type AuthConfig struct {
	FunctionKeys []FunctionKeyConfig `koanf:"function_keys"`
}

type FunctionKeyConfig struct {
	KeyHash     string `koanf:"key_hash"`
	Description string `koanf:"description"`
}

type SpeechConfig struct {
	Endpoint string        `koanf:"endpoint"`
	APIKey   string        `koanf:"api_key"`
	Language string        `koanf:"language"`
	Timeout  time.Duration `koanf:"timeout"`
}

// Configured reports whether the cloud recognizer can be reached.
func (s SpeechConfig) Configured() bool {
	return s.Endpoint != "" && s.APIKey != ""
}

type FunctionsConfig struct {
	TokenEncoding string `koanf:"token_encoding"`
	FactorialMax  int    `koanf:"factorial_max"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

var defaults = map[string]any{
	"server.port":              7071,
	"server.timeout":           "30s",
	"speech.language":          "en-US",
	"speech.timeout":           "30s",
	"functions.token_encoding": "cl100k_base",
	"functions.factorial_max":  5000,
	"telemetry.service_name":   "polyglot-functions",
}

// Load reads path (if it exists), then SPEECH_* variables, then FUNCS_*
// variables, each layer overriding the previous one.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// SPEECH_* names kept for existing deployments
	if err := k.Load(env.Provider("SPEECH_", ".", func(s string) string {
		switch s {
		case "SPEECH_ENDPOINT":
			return "speech.endpoint"
		case "SPEECH_API_KEY":
			return "speech.api_key"
		case "SPEECH_LANGUAGE":
			return "speech.language"
		}
		return ""
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("FUNCS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "FUNCS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Speech.APIKey = substituteEnvVars(cfg.Speech.APIKey)
	cfg.Speech.Endpoint = substituteEnvVars(cfg.Speech.Endpoint)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
