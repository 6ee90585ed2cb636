package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

func TestLocalArchive_Deliver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "risk.json")
	sink := NewLocalArchive(path)

	loc, err := sink.Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, path, loc)
	assert.Equal(t, "archive", sink.Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded ReportJSON
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
}

func TestLocalArchive_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "risk.json")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer than nothing"), 0o644))

	_, err := NewLocalArchive(path).Deliver(context.Background(), &domain.AnalysisReport{RunID: "new"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "new"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalArchive_DefaultPath(t *testing.T) {
	assert.Equal(t, domain.DefaultArchivePath, NewLocalArchive("").path)
}

func TestLocalArchive_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewLocalArchive(filepath.Join(blocker, "risk.json")).Deliver(context.Background(), sampleReport())

	var de *domain.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "archive", de.Sink)
	assert.ErrorIs(t, err, domain.ErrDelivery)
}

func TestLocalArchive_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalArchive(filepath.Join(t.TempDir(), "r.json")).Deliver(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObjectArchive_Deliver(t *testing.T) {
	store := &mockObjectStore{}
	sink := NewObjectArchive(store, "reports/")

	loc, err := sink.Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/reports/run-42.json", loc)
	assert.Equal(t, "reports/run-42.json", store.key)
	assert.Equal(t, "application/json", store.contentType)
	assert.Contains(t, string(store.body), `"run_id": "run-42"`)
	assert.Equal(t, "s3", sink.Name())
}

func TestObjectArchive_Failure(t *testing.T) {
	sink := NewObjectArchive(&mockObjectStore{err: errors.New("bucket gone")}, "")

	_, err := sink.Deliver(context.Background(), sampleReport())

	var de *domain.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "s3", de.Sink)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestObjectArchive_RequiresRunID(t *testing.T) {
	_, err := NewObjectArchive(&mockObjectStore{}, "").Deliver(context.Background(), &domain.AnalysisReport{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
