package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Scopes requested by each adapter.
var (
	SheetsScopes = []string{sheets.SpreadsheetsScope, drive.DriveFileScope}
	GmailScopes  = []string{gmail.GmailSendScope}
)

// ClientOptions reads a credentials file and returns the client options
// that authenticate API calls with it.
func ClientOptions(ctx context.Context, credentialsFile string, scopes ...string) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("%w: google credentials file is not set", domain.ErrInvalidInput)
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: google credentials file %s", domain.ErrNotFound, credentialsFile)
		}
		return nil, fmt.Errorf("read google credentials: %w", err)
	}

	creds, err := googleoauth.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse google credentials: %w", domain.ErrInvalidInput, err)
	}

	return []option.ClientOption{option.WithTokenSource(creds.TokenSource)}, nil
}

// NewSheetsService creates a Google Sheets API service.
func NewSheetsService(ctx context.Context, opts ...option.ClientOption) (*sheets.Service, error) {
	return sheets.NewService(ctx, opts...)
}

// NewDriveService creates a Google Drive API service.
func NewDriveService(ctx context.Context, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, opts...)
}

// NewGmailService creates a Gmail API service.
func NewGmailService(ctx context.Context, opts ...option.ClientOption) (*gmail.Service, error) {
	return gmail.NewService(ctx, opts...)
}
