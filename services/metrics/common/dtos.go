package common

import (
	"encoding/json"
	"time"
)

// Known cache domains. Each domain maps to one adapter and one slice of the cache table.
const (
	DomainSocial     = "social"
	DomainCompetitor = "competitor"
)

// IsKnownDomain tells if the provided domain maps to a registered adapter domain
func IsKnownDomain(domain string) bool {
	return domain == DomainSocial || domain == DomainCompetitor
}

// MetricStatus is the qualitative health tag attached to a metric value
type MetricStatus string

const (
	StatusGood     MetricStatus = "good"
	StatusWarning  MetricStatus = "warning"
	StatusCritical MetricStatus = "critical"
	StatusNeutral  MetricStatus = "neutral"
)

// Availability tells what kind of outcome an adapter call produced
type Availability string

const (
	// AvailabilityData means the adapter produced at least one metric
	AvailabilityData Availability = "data"
	// AvailabilityEmpty means the fetch succeeded but the subject has no rows
	AvailabilityEmpty Availability = "empty"
	// AvailabilityFailed means the fetch or transform errored
	AvailabilityFailed Availability = "failed"
)

// MetricRecord represents one normalized, classified observation
type MetricRecord struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Value    float64      `json:"value"`
	Unit     string       `json:"unit"`
	Status   MetricStatus `json:"status"`
	Context  string       `json:"context,omitempty"`
	Tags     []string     `json:"tags,omitempty"`
}

// AdapterResult is the full normalized output of one adapter for one subject.
// It is built fresh on every call and never mutated after return.
type AdapterResult struct {
	Available    bool                       `json:"available"`
	Availability Availability               `json:"availability"`
	Reason       string                     `json:"reason,omitempty"`
	Metrics      []MetricRecord             `json:"metrics"`
	LastUpdated  *time.Time                 `json:"lastUpdated"`
	RawData      map[string]json.RawMessage `json:"rawData,omitempty"`
	Platforms    []string                   `json:"platforms,omitempty"`
	Competitors  []string                   `json:"competitors,omitempty"`
}

// NewEmptyResult creates the result for a subject with no cached rows
func NewEmptyResult() *AdapterResult {
	return &AdapterResult{
		Available:    false,
		Availability: AvailabilityEmpty,
		Metrics:      make([]MetricRecord, 0),
	}
}

// NewFailedResult creates the result for a fetch or transform failure
func NewFailedResult(reason string) *AdapterResult {
	return &AdapterResult{
		Available:    false,
		Availability: AvailabilityFailed,
		Reason:       reason,
		Metrics:      make([]MetricRecord, 0),
	}
}

// CacheRow is one raw cached row as stored by the acquisition jobs
type CacheRow struct {
	SubjectKey string          `json:"subjectKey"`
	Dimension  string          `json:"dimension"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  int64           `json:"fetchedAt"`
}

// RowQuery restricts a cache-row fetch. Zero values mean "no restriction".
type RowQuery struct {
	SubjectKey   string
	Dimension    string
	MinFetchedAt int64
	Ascending    bool
	Limit        int
}

// AggregateResult is the merged view over all adapters for one subject
type AggregateResult struct {
	Metrics     []MetricRecord            `json:"metrics"`
	ByCategory  map[string][]MetricRecord `json:"byCategory"`
	Sources     map[string]*AdapterResult `json:"sources"`
	LastUpdated *time.Time                `json:"lastUpdated"`
}
