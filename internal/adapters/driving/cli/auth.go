package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/docrisk/internal/adapters/driven/google"
	drivenoauth "github.com/custodia-labs/docrisk/internal/adapters/driven/oauth"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/oauth"
	"github.com/custodia-labs/docrisk/internal/core/domain"
)

const defaultTokenFile = "google_token.json"

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var (
	authClientSecret string
	authOut          string
	authNoBrowser    bool
	authSave         bool
	authTimeout      time.Duration
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to external services",
}

var authGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Authorize the Google Sheets and Gmail sinks with your account",
	Long: `Runs the OAuth consent flow for an installed-application client secret
and stores the resulting refresh token as an authorized-user credentials
file. Point sinks.sheets.credentials_file and sinks.email.credentials_file
at the file, or pass --save to do it for you.`,
	Args: cobra.NoArgs,
	RunE: runAuthGoogle,
}

func init() {
	authGoogleCmd.Flags().StringVar(&authClientSecret, "client-secret", "", "OAuth client secret JSON (required)")
	authGoogleCmd.Flags().StringVarP(&authOut, "out", "o", "", "credentials file to write (default next to the config file)")
	authGoogleCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	authGoogleCmd.Flags().BoolVar(&authSave, "save", false, "store the credentials path in the sheets and email sink settings")
	authGoogleCmd.Flags().DurationVar(&authTimeout, "timeout", 5*time.Minute, "how long to wait for the browser callback")

	authCmd.AddCommand(authGoogleCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthGoogle(cmd *cobra.Command, _ []string) error {
	if authClientSecret == "" {
		return errors.New("--client-secret is required")
	}
	out, err := tokenFilePath()
	if err != nil {
		return err
	}

	scopes := append(append([]string(nil), google.SheetsScopes...), google.GmailScopes...)
	cfg, err := drivenoauth.LoadClientConfig(authClientSecret, scopes...)
	if err != nil {
		return err
	}

	state, err := oauth.NewState()
	if err != nil {
		return err
	}
	server := oauth.NewCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() { _ = server.Stop() }()

	cfg.RedirectURL = server.RedirectURI()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	cmd.Println("Open this URL to authorize docrisk:")
	cmd.Println()
	cmd.Printf("  %s\n", authURL)
	cmd.Println()
	if !authNoBrowser {
		if err := openBrowser(authURL); err != nil {
			cmd.Printf("Could not open a browser (%v). Open the URL manually.\n", err)
		}
	}
	cmd.Println("Waiting for authorization...")

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()
	code, err := server.WaitForCode(ctx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	tok, err := drivenoauth.Exchange(ctx, cfg, code, verifier)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if err := drivenoauth.WriteAuthorizedUser(out, drivenoauth.NewAuthorizedUser(cfg, tok)); err != nil {
		return err
	}
	cmd.Printf("Credentials written to %s\n", out)

	if !authSave {
		cmd.Println("Set sinks.sheets.credentials_file and sinks.email.credentials_file to this path.")
		return nil
	}
	return saveCredentialsPath(cmd, out)
}

func tokenFilePath() (string, error) {
	if authOut != "" {
		return filepath.Abs(authOut)
	}
	if configPath != "" {
		return filepath.Join(filepath.Dir(configPath), defaultTokenFile), nil
	}
	return "", errors.New("--out is required when the config location is unknown")
}

// saveCredentialsPath stores path without applying environment overrides,
// so only the credentials fields change on disk.
func saveCredentialsPath(cmd *cobra.Command, path string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	settings.Sinks.Sheets.CredentialsFile = path
	settings.Sinks.Email.CredentialsFile = path
	if settings.Sinks.Email.Transport == "" {
		settings.Sinks.Email.Transport = domain.EmailTransportGmail
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Sheets and email sinks now use these credentials.")
	return nil
}
