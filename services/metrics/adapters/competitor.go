package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	"github.com/tidwall/gjson"
)

const (
	competitorAdapterName = "competitor"
	competitorCategory    = "Competitor"
)

// competitorRow is the typed view over one raw competitor-analysis payload
type competitorRow struct {
	domain      string
	performance float64
	seo         float64
	backlinks   float64
	fetchedAt   int64
	payload     json.RawMessage
}

func parseCompetitorRow(row common.CacheRow) competitorRow {
	parsed := gjson.ParseBytes(row.Payload)

	return competitorRow{
		domain:      row.Dimension,
		performance: parsed.Get("lighthouse_data.performance").Float(),
		seo:         parsed.Get("lighthouse_data.seo").Float(),
		backlinks:   parsed.Get("backlink_data.total").Float(),
		fetchedAt:   row.FetchedAt,
		payload:     row.Payload,
	}
}

// ArgsCompetitorAdapter defines the competitor adapter arguments
type ArgsCompetitorAdapter struct {
	Store RowStore
	// MaxRows caps the fetch to the top-N most recent analysis rows
	MaxRows int
}

// competitorAdapter normalizes the competitor-analysis cache of a subject. The
// subject key is the account email. This domain reports facts, not health
// judgements: every produced metric is neutral.
type competitorAdapter struct {
	store   RowStore
	maxRows int
}

// NewCompetitorAdapter creates a new competitor-analysis metrics adapter
func NewCompetitorAdapter(args ArgsCompetitorAdapter) (*competitorAdapter, error) {
	if check.IfNil(args.Store) {
		return nil, errNilRowStore
	}
	if args.MaxRows <= 0 {
		return nil, errInvalidMaxRows
	}

	return &competitorAdapter{
		store:   args.Store,
		maxRows: args.MaxRows,
	}, nil
}

// Name returns the adapter name, also used as the metric id prefix
func (adapter *competitorAdapter) Name() string {
	return competitorAdapterName
}

// Category returns the grouping tag stamped on every produced metric
func (adapter *competitorAdapter) Category() string {
	return competitorCategory
}

// GetMetrics fetches the subject's most recent analysis rows, one per tracked
// competitor, and derives the summary and per-competitor metrics
func (adapter *competitorAdapter) GetMetrics(ctx context.Context, subjectKey string) *common.AdapterResult {
	rows, err := adapter.store.FetchRows(ctx, common.DomainCompetitor, common.RowQuery{
		SubjectKey: subjectKey,
		Limit:      adapter.maxRows,
	})
	if err != nil {
		log.Warn("competitor adapter fetch failed", "subject", subjectKey, "error", err)
		return common.NewFailedResult(err.Error())
	}
	if len(rows) == 0 {
		return common.NewEmptyResult()
	}

	// The store already orders by recency, re-sort defensively. The store is
	// append-only, so a re-ingested analysis leaves several rows for one domain:
	// keep only the freshest per domain, otherwise the per-row metric ids would
	// collide within the result.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FetchedAt > rows[j].FetchedAt
	})

	parsed := make([]competitorRow, 0, len(rows))
	seenDomains := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		_, found := seenDomains[row.Dimension]
		if found {
			continue
		}

		seenDomains[row.Dimension] = struct{}{}
		parsed = append(parsed, parseCompetitorRow(row))
	}

	return adapter.assembleResult(parsed)
}

func (adapter *competitorAdapter) assembleResult(rows []competitorRow) *common.AdapterResult {
	result := &common.AdapterResult{
		Available:    true,
		Availability: common.AvailabilityData,
		Metrics:      make([]common.MetricRecord, 0, 3*len(rows)+4),
		RawData:      make(map[string]json.RawMessage, len(rows)),
		Competitors:  make([]string, 0, len(rows)),
	}

	sumPerformance := 0.0
	sumSEO := 0.0
	sumBacklinks := 0.0
	for _, row := range rows {
		sumPerformance += row.performance
		sumSEO += row.seo
		sumBacklinks += row.backlinks
	}

	numRows := len(rows)
	averageContext := fmt.Sprintf("Average across %d tracked competitors", numRows)

	// Averages divide by the full row count: a zero score emits no per-row metric
	// below, but still counts as 0 in both the numerator and the denominator here.
	result.Metrics = append(result.Metrics,
		common.MetricRecord{
			ID:       "competitor_tracked_count",
			Name:     "Tracked Competitors",
			Category: competitorCategory,
			Value:    float64(numRows),
			Unit:     "competitors",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("%d competitors in the latest analysis window", numRows),
		},
		common.MetricRecord{
			ID:       "competitor_avg_performance",
			Name:     "Average Performance Score",
			Category: competitorCategory,
			Value:    roundHalfUp(sumPerformance / float64(numRows)),
			Unit:     "score",
			Status:   common.StatusNeutral,
			Context:  averageContext,
		},
		common.MetricRecord{
			ID:       "competitor_avg_seo",
			Name:     "Average SEO Score",
			Category: competitorCategory,
			Value:    roundHalfUp(sumSEO / float64(numRows)),
			Unit:     "score",
			Status:   common.StatusNeutral,
			Context:  averageContext,
		},
		common.MetricRecord{
			ID:       "competitor_avg_backlinks",
			Name:     "Average Backlinks",
			Category: competitorCategory,
			Value:    roundHalfUp(sumBacklinks / float64(numRows)),
			Unit:     "backlinks",
			Status:   common.StatusNeutral,
			Context:  averageContext,
		},
	)

	// Rows hold one domain each at this point, GetMetrics already collapsed
	// duplicates to the freshest row
	for _, row := range rows {
		result.RawData[row.domain] = row.payload
		result.Metrics = append(result.Metrics, adapter.competitorMetrics(row)...)
		result.Competitors = append(result.Competitors, row.domain)
	}

	// Rows arrive freshest-first from the store
	if rows[0].fetchedAt > 0 {
		ts := time.Unix(rows[0].fetchedAt, 0).UTC()
		result.LastUpdated = &ts
	}

	return result
}

// competitorMetrics emits up to three facts per tracked competitor. A zero or
// absent source value means "not applicable" and emits nothing.
func (adapter *competitorAdapter) competitorMetrics(row competitorRow) []common.MetricRecord {
	tags := []string{row.domain}
	metrics := make([]common.MetricRecord, 0, 3)

	if row.performance > 0 {
		metrics = append(metrics, common.MetricRecord{
			ID:       fmt.Sprintf("competitor_%s_performance", row.domain),
			Name:     fmt.Sprintf("%s Performance", row.domain),
			Category: competitorCategory,
			Value:    row.performance,
			Unit:     "score",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("Lighthouse performance score for %s", row.domain),
			Tags:     tags,
		})
	}

	if row.seo > 0 {
		metrics = append(metrics, common.MetricRecord{
			ID:       fmt.Sprintf("competitor_%s_seo", row.domain),
			Name:     fmt.Sprintf("%s SEO", row.domain),
			Category: competitorCategory,
			Value:    row.seo,
			Unit:     "score",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("Lighthouse SEO score for %s", row.domain),
			Tags:     tags,
		})
	}

	if row.backlinks > 0 {
		metrics = append(metrics, common.MetricRecord{
			ID:       fmt.Sprintf("competitor_%s_backlinks", row.domain),
			Name:     fmt.Sprintf("%s Backlinks", row.domain),
			Category: competitorCategory,
			Value:    row.backlinks,
			Unit:     "backlinks",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("Known backlinks pointing at %s", row.domain),
			Tags:     tags,
		})
	}

	return metrics
}

func roundHalfUp(value float64) float64 {
	return math.Floor(value + 0.5)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (adapter *competitorAdapter) IsInterfaceNil() bool {
	return adapter == nil
}
