// Command docrisk analyses documents for legal and risk issues.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/docrisk/internal/adapters/driven/config/env"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrisk/internal/app"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
	"github.com/custodia-labs/docrisk/internal/core/services"
	"github.com/custodia-labs/docrisk/internal/logger"
)

func main() {
	if err := env.LoadDotenv(); err != nil {
		logger.Warn("Ignoring .env: %v", err)
	}

	var opts []app.Option
	deps := &cli.Services{
		NewSettings: openSettings,
		Overlay:     env.Apply,
	}
	if prompts, err := file.NewPromptStore(""); err == nil {
		deps.Prompts = prompts
		opts = append(opts, app.WithPrompts(prompts))
	} else {
		logger.Warn("Prompt directory unavailable, using built-in prompts: %v", err)
	}
	deps.NewSession = func(ctx context.Context, settings domain.Settings, stdin io.Reader) (cli.Session, error) {
		sessionOpts := append([]app.Option{app.WithStdin(stdin)}, opts...)
		a, err := app.New(ctx, settings, sessionOpts...)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	cli.SetServices(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func openSettings(path string) (driving.SettingsService, string, error) {
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, "", err
	}
	return services.NewSettingsService(store), store.Path(), nil
}
