package sinks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure the archive sinks implement the interface.
var (
	_ driven.Sink = (*LocalArchive)(nil)
	_ driven.Sink = (*ObjectArchive)(nil)
)

// LocalArchive writes the report as JSON to a local file. The file is
// replaced atomically so readers never observe a partial report.
type LocalArchive struct {
	path string
}

// NewLocalArchive creates an archive sink writing to path
// (default domain.DefaultArchivePath).
func NewLocalArchive(path string) *LocalArchive {
	if path == "" {
		path = domain.DefaultArchivePath
	}
	return &LocalArchive{path: path}
}

// Name returns "archive".
func (a *LocalArchive) Name() string {
	return "archive"
}

// Deliver writes the report and returns the absolute file path.
func (a *LocalArchive) Deliver(ctx context.Context, report *domain.AnalysisReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", deliveryError(a.Name(), err)
	}

	data, err := MarshalReport(report)
	if err != nil {
		return "", deliveryError(a.Name(), err)
	}

	path, err := filepath.Abs(a.path)
	if err != nil {
		return "", deliveryError(a.Name(), fmt.Errorf("resolve path: %w", err))
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", deliveryError(a.Name(), err)
	}

	logger.Debug("Archived report %s to %s", report.RunID, path)
	return path, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ObjectArchive uploads the JSON report to an object store under
// <prefix><run-id>.json.
type ObjectArchive struct {
	store  driven.ObjectStore
	prefix string
}

// NewObjectArchive creates an object archive sink.
func NewObjectArchive(store driven.ObjectStore, prefix string) *ObjectArchive {
	return &ObjectArchive{store: store, prefix: prefix}
}

// Name returns "s3".
func (a *ObjectArchive) Name() string {
	return "s3"
}

// Key returns the object key used for a run.
func (a *ObjectArchive) Key(runID string) string {
	return a.prefix + runID + ".json"
}

// Deliver uploads the report and returns the store's location for it.
func (a *ObjectArchive) Deliver(ctx context.Context, report *domain.AnalysisReport) (string, error) {
	data, err := MarshalReport(report)
	if err != nil {
		return "", deliveryError(a.Name(), err)
	}
	if report.RunID == "" {
		return "", deliveryError(a.Name(), fmt.Errorf("%w: report has no run id", domain.ErrInvalidInput))
	}

	location, err := a.store.Put(ctx, a.Key(report.RunID), bytes.NewReader(data), "application/json")
	if err != nil {
		return "", deliveryError(a.Name(), err)
	}
	return location, nil
}
