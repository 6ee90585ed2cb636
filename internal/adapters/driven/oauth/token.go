// Package oauth exchanges Google authorization codes for refresh tokens and
// stores them as authorized-user credentials files.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// AuthorizedUserType is the credentials type understood by
// google.CredentialsFromJSON for user refresh tokens.
const AuthorizedUserType = "authorized_user"

// AuthorizedUser is the on-disk form of a user refresh token.
type AuthorizedUser struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// LoadClientConfig reads an OAuth client secret ("installed" or "web"
// application) downloaded from the Google Cloud console.
func LoadClientConfig(path string, scopes ...string) (*oauth2.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: client secret file is not set", domain.ErrInvalidInput)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: client secret file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read client secret: %w", err)
	}

	cfg, err := googleoauth.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse client secret: %w", domain.ErrInvalidInput, err)
	}
	return cfg, nil
}

// Exchange trades an authorization code for tokens. verifier is the PKCE
// code verifier sent with the authorization request, if any.
func Exchange(ctx context.Context, cfg *oauth2.Config, code, verifier string) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	tok, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode != "" {
			return nil, fmt.Errorf("token error: %s - %s", re.ErrorCode, re.ErrorDescription)
		}
		return nil, fmt.Errorf("token request: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("no refresh token returned; revoke the previous grant and retry")
	}
	return tok, nil
}

// NewAuthorizedUser builds the credentials record for tok.
func NewAuthorizedUser(cfg *oauth2.Config, tok *oauth2.Token) AuthorizedUser {
	return AuthorizedUser{
		Type:         AuthorizedUserType,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: tok.RefreshToken,
	}
}

// WriteAuthorizedUser stores user as JSON at path with owner-only
// permissions, creating parent directories as needed.
func WriteAuthorizedUser(path string, user AuthorizedUser) error {
	if user.RefreshToken == "" {
		return fmt.Errorf("%w: refresh token is empty", domain.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
