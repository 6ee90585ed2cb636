// Package cli provides the docrisk command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=v1.2.3".
var version = "dev"

// Session is a wired pipeline ready to analyse documents.
type Session interface {
	driving.Pipeline

	// AddObserver registers an observer for every later run.
	AddObserver(obs driving.RunObserver)

	// Sinks returns the configured sink names in delivery order.
	Sinks() []string

	// Close releases the generator and embedding backends.
	Close() error
}

// SessionFactory builds a Session from explicit settings. stdin backs
// the "-" document source.
type SessionFactory func(ctx context.Context, settings domain.Settings, stdin io.Reader) (Session, error)

// SettingsFactory opens the settings stored at path. An empty path
// selects the default location. It returns the resolved path.
type SettingsFactory func(path string) (driving.SettingsService, string, error)

// Services holds the collaborators the CLI drives.
type Services struct {
	// NewSettings opens the config file named by --config.
	NewSettings SettingsFactory

	// Overlay applies environment overrides to loaded settings. Optional.
	Overlay func(settings *domain.Settings) error

	// NewSession wires a pipeline for analyze, watch and mcp serve.
	NewSession SessionFactory

	// Prompts exposes prompt templates to the MCP server. Optional.
	Prompts driven.PromptStore
}

var (
	services        *Services
	settingsService driving.SettingsService
	configPath      string
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docrisk",
	Short: "Legal and risk analysis of documents",
	Long: `docrisk splits a document into chunks, asks a language model for the
legal or risk concerns and recommendations of every chunk, answers a
question about the whole document and delivers the report to the
configured sinks (JSON archive, Google Sheets, S3, e-mail, Telegram).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.docrisk/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
}

// SetServices sets the collaborators used by every command.
func SetServices(s *Services) {
	services = s
	settingsService = nil
	configPath = ""
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx; cancelling ctx stops
// running analyses.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.Error("%v", err)
	}
	return err
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if settingsService != nil || services == nil || services.NewSettings == nil {
		return nil
	}
	svc, path, err := services.NewSettings(cfgFile)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService = svc
	configPath = path
	logger.Debug("Using config %s", path)
	return nil
}

// loadSettings returns the stored settings with environment overrides applied.
func loadSettings() (*domain.Settings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if services != nil && services.Overlay != nil {
		if err := services.Overlay(settings); err != nil {
			return nil, fmt.Errorf("environment overrides: %w", err)
		}
	}
	return settings, nil
}

// openSession loads settings, lets adjust modify them, and wires a pipeline.
func openSession(cmd *cobra.Command, adjust func(*domain.Settings)) (Session, error) {
	if services == nil || services.NewSession == nil {
		return nil, errors.New("pipeline not configured")
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(settings)
	}
	return services.NewSession(cmd.Context(), *settings, cmd.InOrStdin())
}
