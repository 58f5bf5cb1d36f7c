package api

import (
	"context"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
)

// Storage defines the interface for persisting and querying raw cache rows
type Storage interface {
	// SaveRow appends one raw cache row for a domain
	SaveRow(ctx context.Context, domain string, row common.CacheRow) error

	// FetchRows returns the rows of one domain matching the query
	FetchRows(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error)

	// DeleteSubjectRows removes all cached rows of a subject within one domain
	DeleteSubjectRows(ctx context.Context, domain string, subjectKey string) error

	// CountRows returns the number of cached rows per domain
	CountRows(ctx context.Context) (map[string]int, error)

	// Close shuts down the database connection
	Close() error

	IsInterfaceNil() bool
}

// Aggregator defines the merged-metrics provider backing the dashboard endpoints
type Aggregator interface {
	// Aggregate invokes every registered adapter with its resolved subject key
	Aggregate(ctx context.Context, keys map[string]string) common.AggregateResult

	// AdapterNames returns the registered adapter names
	AdapterNames() []string

	// GetAdapterResult invokes a single adapter by name
	GetAdapterResult(ctx context.Context, adapterName string, subjectKey string) (*common.AdapterResult, error)

	IsInterfaceNil() bool
}
