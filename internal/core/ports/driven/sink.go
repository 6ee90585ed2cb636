package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Sink is an external destination for a finished AnalysisReport.
// Sinks are independently failable; one sink failing never affects another.
type Sink interface {
	// Name is the configured sink name used in SinkResults and logs.
	Name() string

	// Deliver hands the report to the destination and returns where it
	// ended up (URL, path, message ID). The location may be empty.
	Deliver(ctx context.Context, report *domain.AnalysisReport) (string, error)
}

// FollowUpSink is a Sink that runs after every other sink has finished.
// Notification sinks implement it so the message can reference the
// locations the report was delivered to.
type FollowUpSink interface {
	Sink

	// DeliverFollowUp is called instead of Deliver with the results of
	// the sinks that ran before it.
	DeliverFollowUp(ctx context.Context, report *domain.AnalysisReport, prior []domain.SinkResult) (string, error)
}

// TabularStore is spreadsheet-like row storage.
type TabularStore interface {
	// CreateOrOpen returns a handle for the named table, creating it when
	// it does not exist. created reports whether a new table was made.
	CreateOrOpen(ctx context.Context, name string) (table TableRef, created bool, err error)

	// AppendRows appends rows to the table. Each row is a list of cell values.
	AppendRows(ctx context.Context, table TableRef, rows [][]string) error

	// RowCount returns the number of filled rows, header included.
	RowCount(ctx context.Context, table TableRef) (int, error)
}

// TableRef identifies a table within a TabularStore.
type TableRef struct {
	// ID is the backend identifier (e.g. spreadsheet ID).
	ID string

	// URL is a human-openable link to the table, if the backend has one.
	URL string
}

// MessageTransport delivers a formatted message to one recipient.
type MessageTransport interface {
	// Send delivers the message and returns a backend message ID, if any.
	Send(ctx context.Context, recipient, subject, body string) (string, error)

	// Name identifies the transport (e.g. "smtp", "gmail", "telegram").
	Name() string
}

// ObjectStore stores opaque blobs under a key.
type ObjectStore interface {
	// Put stores the content under key and returns its location (e.g. s3://bucket/key).
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}
