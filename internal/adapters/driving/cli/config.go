package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage docrisk configuration",
	Long: `View and edit the generator, retrieval, pipeline and sink settings
stored in the config file. Environment variables (DOCRISK_*) and a .env
file in the working directory override stored values.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose the generator, retrieval mode and archive path.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and provider connectivity",
	Long: `Validates the effective settings, contacts the generator (and the
embedding provider in vector mode) and builds every enabled sink.`,
	RunE: runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d\n", p.ChunkSize)
	cmd.Printf("  Max tokens: %d\n", p.MaxTokens)
	cmd.Printf("  Temperature: %.2f\n", p.Temperature)
	cmd.Printf("  Parallelism: %d\n", p.Parallelism)
	cmd.Printf("  Call timeout: %s\n", p.CallTimeout)
	cmd.Printf("  Retries: %d (backoff %s)\n", p.Retry.MaxRetries, p.Retry.Backoff)
	cmd.Printf("  Zero tolerance: %t\n", p.ZeroTolerance)
	cmd.Println()

	g := settings.Generator
	cmd.Println("[Generator]")
	cmd.Printf("  Provider: %s\n", g.Provider.Description())
	cmd.Printf("  Model: %s\n", g.Model)
	printProviderAccess(cmd, g.Provider, g.BaseURL, g.APIKey)
	cmd.Printf("  Status: %s\n", configuredText(g.IsConfigured()))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Mode: %s\n", settings.Retrieval.Mode.Description())
	cmd.Printf("  Segments per query: %d\n", p.RetrievalK)
	if settings.Retrieval.Mode.RequiresEmbedding() {
		e := settings.Embedding
		cmd.Printf("  Embedding provider: %s\n", e.Provider.Description())
		cmd.Printf("  Embedding model: %s\n", e.Model)
		printProviderAccess(cmd, e.Provider, e.BaseURL, e.APIKey)
		cmd.Printf("  Status: %s\n", configuredText(e.IsConfigured()))
	}
	cmd.Println()

	printSinks(cmd, settings.Sinks)

	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docrisk config init' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printProviderAccess(cmd *cobra.Command, provider domain.AIProvider, baseURL, apiKey string) {
	if provider.IsLocal() || baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
}

func printSinks(cmd *cobra.Command, sk domain.SinkSettings) {
	cmd.Println("[Sinks]")
	cmd.Printf("  archive: %s", enabledText(sk.Archive.Enabled))
	if sk.Archive.Enabled {
		cmd.Printf(" -> %s", sk.Archive.Path)
	}
	cmd.Println()

	cmd.Printf("  sheets: %s", enabledText(sk.Sheets.Enabled))
	if sk.Sheets.Enabled {
		cmd.Printf(" -> %q (credentials %s)", sk.Sheets.Name, sk.Sheets.CredentialsFile)
	}
	cmd.Println()

	cmd.Printf("  s3: %s", enabledText(sk.S3.Enabled))
	if sk.S3.Enabled {
		cmd.Printf(" -> s3://%s/%s", sk.S3.Bucket, sk.S3.Prefix)
		if sk.S3.SecretKey != "" {
			cmd.Printf(" (secret %s)", logger.Redacted(sk.S3.SecretKey))
		}
	}
	cmd.Println()

	cmd.Printf("  email: %s", enabledText(sk.Email.Enabled))
	if sk.Email.Enabled {
		cmd.Printf(" -> %s via %s", sk.Email.To, sk.Email.Transport)
		if sk.Email.Transport == domain.EmailTransportSMTP {
			cmd.Printf(" (%s:%d", sk.Email.Host, sk.Email.Port)
			if sk.Email.Password != "" {
				cmd.Printf(", password %s", logger.Redacted(sk.Email.Password))
			}
			cmd.Print(")")
		}
	}
	cmd.Println()

	cmd.Printf("  telegram: %s", enabledText(sk.Telegram.Enabled))
	if sk.Telegram.Enabled {
		cmd.Printf(" -> chat %s (token %s)", sk.Telegram.ChatID, logger.Redacted(sk.Telegram.BotToken))
	}
	cmd.Println()
	cmd.Println()
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("docrisk Setup Wizard")
	cmd.Println("====================")
	cmd.Println()

	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)

	cmd.Println("Step 1: Select Generator Provider")
	cmd.Println("---------------------------------")
	provider, model, apiKey, err := chooseProvider(cmd, in, reader,
		domain.AllGeneratorProviders(), domain.DefaultGeneratorModels())
	if err != nil {
		return err
	}
	settings.Generator.Provider = provider
	settings.Generator.Model = model
	settings.Generator.APIKey = apiKey
	if provider.IsLocal() && settings.Generator.BaseURL == "" {
		settings.Generator.BaseURL = "http://localhost:11434"
	}
	cmd.Printf("Generator: %s (%s)\n\n", provider.Description(), model)

	cmd.Println("Step 2: Select Retrieval Mode")
	cmd.Println("-----------------------------")
	modes := []domain.RetrievalMode{domain.RetrievalModeKeyword, domain.RetrievalModeVector}
	for i, m := range modes {
		cmd.Printf("  %d. %s\n", i+1, m.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	mode := modes[parseChoice(readLine(reader), len(modes), 1)-1]
	settings.Retrieval.Mode = mode

	if mode.RequiresEmbedding() {
		cmd.Println()
		cmd.Println("Select Embedding Provider")
		provider, model, apiKey, err = chooseProvider(cmd, in, reader,
			domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
		if err != nil {
			return err
		}
		settings.Embedding.Provider = provider
		settings.Embedding.Model = model
		settings.Embedding.APIKey = apiKey
		if provider.IsLocal() && settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	}
	cmd.Printf("Retrieval: %s\n\n", mode.Description())

	cmd.Println("Step 3: JSON Archive")
	cmd.Println("--------------------")
	cmd.Printf("Enter archive path [%s]: ", settings.Sinks.Archive.Path)
	if path := readLine(reader); path != "" {
		settings.Sinks.Archive.Path = path
	}
	settings.Sinks.Archive.Enabled = true
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Settings saved. Run 'docrisk config check' to verify connectivity.")
	}
	return nil
}

// chooseProvider asks for a provider, its model and, for cloud providers, an API key.
func chooseProvider(
	cmd *cobra.Command,
	in io.Reader,
	reader *bufio.Reader,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, string, error) {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(in, reader)
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}
	return provider, model, apiKey, nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	switch {
	case configPath != "":
		fmt.Fprintln(cmd.OutOrStdout(), configPath)
	case cfgFile != "":
		fmt.Fprintln(cmd.OutOrStdout(), cfgFile)
	default:
		return errors.New("config path unknown")
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cmd.Print("Validating settings... ")
	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Contacting %s... ", settings.Generator.Provider.Description())
	session, err := openSession(cmd, nil)
	if err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("configuration check failed: %w", err)
	}
	defer session.Close()
	cmd.Println("OK")

	cmd.Printf("Sinks ready: %s\n", strings.Join(session.Sinks(), ", "))
	return nil
}

// Helper functions.

func configuredText(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func enabledText(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal and
// falls back to a plain line read otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
