// Package sheets provides a TabularStore backed by Google Sheets.
// Spreadsheets are looked up by title through Drive and created through
// the Sheets API when missing.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/docrisk/internal/adapters/driven/google"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.TabularStore = (*Store)(nil)

const (
	spreadsheetMIMEType = "application/vnd.google-apps.spreadsheet"
	appendRange         = "A1"
	countRange          = "A:A"
)

// Store appends rows to Google spreadsheets.
type Store struct {
	sheets    *sheets.Service
	drive     *drive.Service
	shareWith string
	limiter   *google.RateLimiter

	mu sync.Mutex
	// unshared holds spreadsheets created here whose share call failed.
	unshared map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithShareWith grants writer access on newly created spreadsheets.
func WithShareWith(email string) Option {
	return func(s *Store) { s.shareWith = email }
}

// WithRateLimiter replaces the default Sheets rate limiter.
func WithRateLimiter(rl *google.RateLimiter) Option {
	return func(s *Store) { s.limiter = rl }
}

// New creates a Store from existing API services.
func New(sheetsSvc *sheets.Service, driveSvc *drive.Service, opts ...Option) *Store {
	s := &Store{
		sheets:  sheetsSvc,
		drive:   driveSvc,
		limiter:  google.NewRateLimiter(google.ServiceSheets),
		unshared: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromCredentials creates a Store authenticated with a credentials file.
// extra options are appended to the client options of both services.
func NewFromCredentials(ctx context.Context, credentialsFile string, extra []option.ClientOption, opts ...Option) (*Store, error) {
	clientOpts, err := google.ClientOptions(ctx, credentialsFile, google.SheetsScopes...)
	if err != nil {
		return nil, err
	}
	clientOpts = append(clientOpts, extra...)

	sheetsSvc, err := google.NewSheetsService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := google.NewDriveService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return New(sheetsSvc, driveSvc, opts...), nil
}

// CreateOrOpen returns the first non-trashed spreadsheet titled name,
// creating one when none exists. A share that failed on an earlier call
// is retried when the spreadsheet is found again.
func (s *Store) CreateOrOpen(ctx context.Context, name string) (driven.TableRef, bool, error) {
	ref, found, err := s.find(ctx, name)
	if err != nil {
		return driven.TableRef{}, false, fmt.Errorf("find spreadsheet %q: %w", name, err)
	}
	if found {
		logger.Debug("Reusing spreadsheet %s (%s)", name, ref.ID)
		if err := s.shareOnce(ctx, ref.ID); err != nil {
			return driven.TableRef{}, false, err
		}
		return ref, false, nil
	}

	var created *sheets.Spreadsheet
	err = s.limiter.Do(ctx, func() error {
		var callErr error
		created, callErr = s.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: name},
		}).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return driven.TableRef{}, false, fmt.Errorf("create spreadsheet %q: %w", name, err)
	}

	ref = driven.TableRef{ID: created.SpreadsheetId, URL: created.SpreadsheetUrl}
	if ref.URL == "" {
		ref.URL = spreadsheetURL(ref.ID)
	}
	logger.Info("Created spreadsheet %s (%s)", name, ref.ID)

	if s.shareWith != "" {
		s.markUnshared(ref.ID)
		if err := s.shareOnce(ctx, ref.ID); err != nil {
			return driven.TableRef{}, true, err
		}
	}
	return ref, true, nil
}

// RowCount returns the number of rows with a value in column A of the
// first sheet.
func (s *Store) RowCount(ctx context.Context, table driven.TableRef) (int, error) {
	var resp *sheets.ValueRange
	err := s.limiter.Do(ctx, func() error {
		var callErr error
		resp, callErr = s.sheets.Spreadsheets.Values.Get(table.ID, countRange).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return 0, fmt.Errorf("read rows of %s: %w", table.ID, err)
	}
	return len(resp.Values), nil
}

// AppendRows appends rows after the last filled row of the first sheet.
// Cell values are written as-is, without formula evaluation.
func (s *Store) AppendRows(ctx context.Context, table driven.TableRef, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	err := s.limiter.Do(ctx, func() error {
		_, callErr := s.sheets.Spreadsheets.Values.
			Append(table.ID, appendRange, &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return callErr
	})
	if err != nil {
		return fmt.Errorf("append %d rows to %s: %w", len(rows), table.ID, err)
	}
	return nil
}

func (s *Store) find(ctx context.Context, name string) (driven.TableRef, bool, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMIMEType)

	var list *drive.FileList
	err := s.limiter.Do(ctx, func() error {
		var callErr error
		list, callErr = s.drive.Files.List().
			Q(q).
			Fields("files(id, name, webViewLink)").
			PageSize(1).
			Context(ctx).
			Do()
		return callErr
	})
	if err != nil {
		return driven.TableRef{}, false, err
	}
	if len(list.Files) == 0 {
		return driven.TableRef{}, false, nil
	}

	f := list.Files[0]
	url := f.WebViewLink
	if url == "" {
		url = spreadsheetURL(f.Id)
	}
	return driven.TableRef{ID: f.Id, URL: url}, true, nil
}

func (s *Store) markUnshared(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unshared[id] = true
}

// shareOnce shares id if it is still waiting for a successful share.
func (s *Store) shareOnce(ctx context.Context, id string) error {
	s.mu.Lock()
	pending := s.unshared[id]
	s.mu.Unlock()
	if !pending {
		return nil
	}

	if err := s.share(ctx, id); err != nil {
		return fmt.Errorf("share spreadsheet with %s: %w", s.shareWith, err)
	}

	s.mu.Lock()
	delete(s.unshared, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) share(ctx context.Context, fileID string) error {
	return s.limiter.Do(ctx, func() error {
		_, callErr := s.drive.Permissions.Create(fileID, &drive.Permission{
			Type:         "user",
			Role:         "writer",
			EmailAddress: s.shareWith,
		}).SendNotificationEmail(false).Context(ctx).Do()
		return callErr
	})
}

// escapeQuery escapes a value for a Drive query string literal.
func escapeQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}

func spreadsheetURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}
