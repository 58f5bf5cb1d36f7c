package adapters

import (
	"context"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
)

// RowStore defines the read capability the adapters need from the cache-row store
type RowStore interface {
	// FetchRows returns the raw cached rows of one domain matching the query
	FetchRows(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error)

	IsInterfaceNil() bool
}

// Adapter defines one per-domain metrics source. GetMetrics never returns an error:
// fetch and transform failures are logged and reported through the result's
// availability, so a failing adapter degrades the aggregate instead of aborting it.
type Adapter interface {
	// Name returns a short unique identifier, also used as the metric id prefix
	Name() string

	// Category returns the coarse grouping tag stamped on every produced metric
	Category() string

	// GetMetrics fetches and normalizes the subject's cached rows. The subject key
	// type is adapter-specific (email vs internal id); resolving the right key is
	// the caller's concern.
	GetMetrics(ctx context.Context, subjectKey string) *common.AdapterResult

	IsInterfaceNil() bool
}
