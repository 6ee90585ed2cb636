package sinks

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure TabularExport implements the interface.
var _ driven.Sink = (*TabularExport)(nil)

// TabularHeader is the first row of every table.
var TabularHeader = []string{"chunk", "context", "analysis", "recommendations"}

// GapPrefix marks the analysis cell of a chunk with no finding.
const GapPrefix = "GAP: "

// TabularExport appends one row per chunk to a named table.
//
// Deliver may be called again for the same report after a failed or timed
// out attempt. The sink remembers the row count it saw before appending,
// so an append the backend applied without acknowledging is not repeated.
type TabularExport struct {
	store driven.TabularStore
	table string

	mu      sync.Mutex
	pending map[string]appendAttempt
}

// appendAttempt is an unacknowledged append for one run.
type appendAttempt struct {
	tableID  string
	baseline int
	rows     int
}

// NewTabularExport creates a tabular sink writing to the named table
// (default domain.DefaultSheetName).
func NewTabularExport(store driven.TabularStore, table string) *TabularExport {
	if table == "" {
		table = domain.DefaultSheetName
	}
	return &TabularExport{store: store, table: table, pending: make(map[string]appendAttempt)}
}

// Name returns "sheets".
func (t *TabularExport) Name() string {
	return "sheets"
}

// Deliver opens or creates the table and appends the report's rows. The
// header goes first whenever the table is empty. Returns the table URL,
// or its ID when the store has no URL.
func (t *TabularExport) Deliver(ctx context.Context, report *domain.AnalysisReport) (string, error) {
	if report == nil {
		return "", deliveryError(t.Name(), fmt.Errorf("%w: nil report", domain.ErrInvalidInput))
	}

	ref, created, err := t.store.CreateOrOpen(ctx, t.table)
	if err != nil {
		return "", deliveryError(t.Name(), fmt.Errorf("open table %q: %w", t.table, err))
	}

	count, err := t.store.RowCount(ctx, ref)
	if err != nil {
		return "", deliveryError(t.Name(), fmt.Errorf("count rows: %w", err))
	}

	if prev, ok := t.attempt(report.RunID); ok && prev.tableID == ref.ID && count >= prev.baseline+prev.rows {
		logger.Debug("Rows for run %s already in table %s", report.RunID, ref.ID)
		t.clear(report.RunID)
		return location(ref), nil
	}

	rows := Rows(report)
	if count == 0 {
		rows = append([][]string{TabularHeader}, rows...)
	}
	t.remember(report.RunID, appendAttempt{tableID: ref.ID, baseline: count, rows: len(rows)})

	if err := t.store.AppendRows(ctx, ref, rows); err != nil {
		return "", deliveryError(t.Name(), fmt.Errorf("append rows: %w", err))
	}
	t.clear(report.RunID)

	logger.Debug("Appended %d rows to table %s (created=%t)", len(rows), ref.ID, created)
	return location(ref), nil
}

func (t *TabularExport) attempt(runID string) (appendAttempt, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.pending[runID]
	return a, ok
}

func (t *TabularExport) remember(runID string, a appendAttempt) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[runID] = a
}

func (t *TabularExport) clear(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, runID)
}

func location(ref driven.TableRef) string {
	if ref.URL != "" {
		return ref.URL
	}
	return ref.ID
}

// Rows returns one row per chunk of the report in chunk order.
// Gap rows carry "GAP: <reason>" in the analysis column.
func Rows(report *domain.AnalysisReport) [][]string {
	rows := make([]indexedRow, 0, len(report.Findings)+len(report.Gaps))
	for _, f := range report.Findings {
		rows = append(rows, indexedRow{
			index: f.ChunkIndex,
			cells: []string{strconv.Itoa(f.ChunkIndex), f.Context, f.Analysis, f.Recommendation},
		})
	}
	for _, g := range report.Gaps {
		rows = append(rows, indexedRow{
			index: g.ChunkIndex,
			cells: []string{strconv.Itoa(g.ChunkIndex), "", GapPrefix + g.Reason, ""},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].index < rows[j].index })

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.cells
	}
	return out
}

type indexedRow struct {
	index int
	cells []string
}
