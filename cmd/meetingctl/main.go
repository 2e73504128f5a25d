package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aura-meetings/backend/config"
	"github.com/aura-meetings/backend/internal/app"
	"github.com/aura-meetings/backend/internal/cli"
	"github.com/aura-meetings/backend/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := app.NewLogger("warn")
	defer logger.Sync()

	deps := &cli.Dependencies{
		Config: cfg,
		Logger: logger,
	}
	defer deps.Close()

	return cli.NewRootCmd(deps).ExecuteContext(context.Background())
}
