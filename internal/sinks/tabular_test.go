package sinks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

func TestTabularExport_NewTableGetsHeader(t *testing.T) {
	store := &mockTableStore{
		ref:     driven.TableRef{ID: "sheet-1", URL: "https://docs.google.com/spreadsheets/d/sheet-1"},
		created: true,
	}
	sink := NewTabularExport(store, "Contracts")

	loc, err := sink.Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-1", loc)
	assert.Equal(t, []string{"Contracts"}, store.opened)
	assert.Equal(t, [][]string{
		TabularHeader,
		{"0", "The supplier shall indemnify", "Broad indemnity.", "Cap it."},
		{"1", "", "GAP: generation timed out", ""},
		{"2", "Governing law <NY>", "Foreign venue.", "Negotiate."},
	}, store.appended)
}

func TestTabularExport_ExistingTableSkipsHeader(t *testing.T) {
	store := &mockTableStore{
		ref:      driven.TableRef{ID: "sheet-1"},
		appended: [][]string{TabularHeader, {"0", "earlier run", "", ""}},
	}

	loc, err := NewTabularExport(store, "").Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, "sheet-1", loc)
	assert.Equal(t, []string{domain.DefaultSheetName}, store.opened)
	require.Len(t, store.appended, 5)
	assert.Equal(t, []string{"0", "The supplier shall indemnify", "Broad indemnity.", "Cap it."}, store.appended[2])
}

func TestTabularExport_RetryAfterFailedFirstAppendWritesHeader(t *testing.T) {
	store := &mockTableStore{ref: driven.TableRef{ID: "sheet-1"}, created: true, failAppends: 1}
	sink := NewTabularExport(store, "Contracts")

	_, err := sink.Deliver(context.Background(), sampleReport())
	require.Error(t, err)

	// The table now exists, so the store reports it as opened.
	store.created = false
	_, err = sink.Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	require.Len(t, store.appended, 4)
	assert.Equal(t, TabularHeader, store.appended[0])
}

func TestTabularExport_AppliedAppendIsNotRepeated(t *testing.T) {
	store := &mockTableStore{ref: driven.TableRef{ID: "sheet-1", URL: "https://sheet"}, created: true, lostAcks: 1}
	sink := NewTabularExport(store, "Contracts")

	_, err := sink.Deliver(context.Background(), sampleReport())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	loc, err := sink.Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, "https://sheet", loc)
	assert.Equal(t, 1, store.appends)
	assert.Len(t, store.appended, 4)
}

func TestTabularExport_OtherRunsAppendIndependently(t *testing.T) {
	store := &mockTableStore{ref: driven.TableRef{ID: "sheet-1"}, created: true, lostAcks: 1}
	sink := NewTabularExport(store, "")

	_, err := sink.Deliver(context.Background(), sampleReport())
	require.Error(t, err)

	other := sampleReport()
	other.RunID = "run-43"
	_, err = sink.Deliver(context.Background(), other)

	require.NoError(t, err)
	assert.Equal(t, 2, store.appends)
	assert.Len(t, store.appended, 7)
}

func TestTabularExport_Failures(t *testing.T) {
	tests := []struct {
		name  string
		store *mockTableStore
		want  string
	}{
		{"open", &mockTableStore{openErr: errors.New("quota")}, "open table"},
		{"count", &mockTableStore{countErr: errors.New("quota")}, "count rows"},
		{"append", &mockTableStore{appendEr: errors.New("quota")}, "append rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTabularExport(tt.store, "x").Deliver(context.Background(), sampleReport())

			var de *domain.DeliveryError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "sheets", de.Sink)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRows_CoversEveryChunkOnce(t *testing.T) {
	report := sampleReport()
	rows := Rows(report)

	require.Len(t, rows, report.ChunkCount)
	for i, row := range rows {
		assert.Len(t, row, len(TabularHeader))
		assert.Equal(t, []string{"0", "1", "2"}[i], row[0])
	}
}
