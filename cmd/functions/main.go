package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/polyglot-functions/internal/auth"
	"github.com/tjfontaine/polyglot-functions/internal/config"
	"github.com/tjfontaine/polyglot-functions/internal/functions"
	"github.com/tjfontaine/polyglot-functions/internal/server"
	"github.com/tjfontaine/polyglot-functions/internal/speech"
	"github.com/tjfontaine/polyglot-functions/internal/telemetry"
	"github.com/tjfontaine/polyglot-functions/internal/tokens"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("FUNCS_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	if !cfg.Speech.Configured() {
		logger.Warn("speech service is not configured; speech_to_text will fail",
			slog.String("hint", "set SPEECH_ENDPOINT and SPEECH_API_KEY"))
	}

	counter := tokens.NewCounter(cfg.Functions.TokenEncoding)
	logger.Info("token counter ready", slog.String("encoding", counter.Encoding()))
	recognizer := speech.NewAzureClient(cfg.Speech)
	handler := functions.NewHandler(cfg.Functions, counter, recognizer, logger)

	authenticator := auth.NewAuthenticator(cfg.Auth.FunctionKeys)
	if !authenticator.Enabled() {
		logger.Warn("no function keys configured; functions accept anonymous requests")
	}

	srv := server.New(cfg.Server, logger, server.NewMetrics())
	srv.Functions(authenticator, handler.Routes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
