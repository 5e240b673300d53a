// Package main is the entry point for the GL tour.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/app"
	"github.com/Faultbox/gltour/internal/config"
	"github.com/Faultbox/gltour/internal/engine/shader"
	"github.com/Faultbox/gltour/internal/engine/window"
	"github.com/Faultbox/gltour/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== GL Tour ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		report(err)
		return 1
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		report(err)
		return 1
	}

	logger.Info("Session closed normally")
	return 0
}

// report prints a terminal error once, naming its kind.
func report(err error) {
	kind := "Error"
	var be *shader.BuildError
	switch {
	case errors.Is(err, window.ErrGraphicsDisabled), errors.Is(err, window.ErrGraphicsUnsupported):
		kind = "Unsupported environment"
	case errors.As(err, &be), errors.Is(err, shader.ErrMissingBinding):
		kind = "Shader build failure"
	}
	logger.Error(kind, zap.Error(err))
	fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
}
