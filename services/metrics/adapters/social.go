package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("adapters")

const (
	socialAdapterName = "social"
	socialCategory    = "Social Media"
)

// socialRow is the typed view over one raw social-media cache payload. Missing
// numeric fields default to 0, missing lists to empty.
type socialRow struct {
	platform       string
	followerCount  float64
	engagementRate float64
	recentPosts    int
	growthDelta    float64
	hasGrowth      bool
	fetchedAt      int64
	payload        json.RawMessage
}

func parseSocialRow(row common.CacheRow) socialRow {
	parsed := gjson.ParseBytes(row.Payload)
	growthSeries := parsed.Get("growth_history").Array()

	res := socialRow{
		platform:       row.Dimension,
		followerCount:  parsed.Get("follower_count").Float(),
		engagementRate: parsed.Get("engagement_data.rate").Float(),
		recentPosts:    len(parsed.Get("recent_posts").Array()),
		fetchedAt:      row.FetchedAt,
		payload:        row.Payload,
	}

	if len(growthSeries) > 0 {
		res.hasGrowth = true
		res.growthDelta = growthSeries[len(growthSeries)-1].Float()
	}

	return res
}

// ArgsSocialAdapter defines the social adapter arguments
type ArgsSocialAdapter struct {
	Store RowStore
	// WindowDays bounds the fetch to rows updated within the trailing window
	WindowDays int
}

// socialAdapter normalizes the social-media cache of a subject. The subject key
// is the generated internal account id.
type socialAdapter struct {
	store      RowStore
	windowDays int
}

// NewSocialAdapter creates a new social-media metrics adapter
func NewSocialAdapter(args ArgsSocialAdapter) (*socialAdapter, error) {
	if check.IfNil(args.Store) {
		return nil, errNilRowStore
	}
	if args.WindowDays <= 0 {
		return nil, errInvalidWindowDays
	}

	return &socialAdapter{
		store:      args.Store,
		windowDays: args.WindowDays,
	}, nil
}

// Name returns the adapter name, also used as the metric id prefix
func (adapter *socialAdapter) Name() string {
	return socialAdapterName
}

// Category returns the grouping tag stamped on every produced metric
func (adapter *socialAdapter) Category() string {
	return socialCategory
}

// GetMetrics fetches the subject's cached social rows, keeps the freshest row per
// platform and derives the per-platform and summary metrics
func (adapter *socialAdapter) GetMetrics(ctx context.Context, subjectKey string) *common.AdapterResult {
	minFetchedAt := time.Now().Add(-time.Duration(adapter.windowDays) * 24 * time.Hour).Unix()
	rows, err := adapter.store.FetchRows(ctx, common.DomainSocial, common.RowQuery{
		SubjectKey:   subjectKey,
		MinFetchedAt: minFetchedAt,
	})
	if err != nil {
		log.Warn("social adapter fetch failed", "subject", subjectKey, "error", err)
		return common.NewFailedResult(err.Error())
	}
	if len(rows) == 0 {
		return common.NewEmptyResult()
	}

	// The store already orders by recency, re-sort defensively: first occurrence
	// per platform must be the freshest row. Stable sort keeps the store order on
	// equal timestamps.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FetchedAt > rows[j].FetchedAt
	})

	kept := make([]socialRow, 0, len(rows))
	seenPlatforms := make(map[string]struct{})
	for _, row := range rows {
		_, found := seenPlatforms[row.Dimension]
		if found {
			continue
		}

		seenPlatforms[row.Dimension] = struct{}{}
		kept = append(kept, parseSocialRow(row))
	}

	return adapter.assembleResult(kept)
}

func (adapter *socialAdapter) assembleResult(kept []socialRow) *common.AdapterResult {
	result := &common.AdapterResult{
		Available:    true,
		Availability: common.AvailabilityData,
		Metrics:      make([]common.MetricRecord, 0, 4*len(kept)+2),
		RawData:      make(map[string]json.RawMessage, len(kept)),
		Platforms:    make([]string, 0, len(kept)),
	}

	totalFollowers := 0.0
	totalPosts := 0
	var lastUpdated int64

	for _, row := range kept {
		result.Platforms = append(result.Platforms, row.platform)
		result.RawData[row.platform] = row.payload
		result.Metrics = append(result.Metrics, adapter.platformMetrics(row)...)

		totalFollowers += row.followerCount
		totalPosts += row.recentPosts
		if row.fetchedAt > lastUpdated {
			lastUpdated = row.fetchedAt
		}
	}

	result.Metrics = append(result.Metrics,
		common.MetricRecord{
			ID:       "social_total_followers",
			Name:     "Total Followers",
			Category: socialCategory,
			Value:    totalFollowers,
			Unit:     "followers",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("Combined audience across %d platforms", len(kept)),
		},
		common.MetricRecord{
			ID:       "social_total_posts",
			Name:     "Total Recent Posts",
			Category: socialCategory,
			Value:    float64(totalPosts),
			Unit:     "posts",
			Status:   classifyActivityCount(totalPosts),
			Context:  fmt.Sprintf("%d recent posts across all platforms", totalPosts),
		},
	)

	if lastUpdated > 0 {
		ts := time.Unix(lastUpdated, 0).UTC()
		result.LastUpdated = &ts
	}

	return result
}

func (adapter *socialAdapter) platformMetrics(row socialRow) []common.MetricRecord {
	displayName := titleCase(row.platform)
	tags := []string{row.platform}

	metrics := []common.MetricRecord{
		{
			ID:       fmt.Sprintf("social_%s_followers", row.platform),
			Name:     fmt.Sprintf("%s Followers", displayName),
			Category: socialCategory,
			Value:    row.followerCount,
			Unit:     "followers",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("Audience size on %s", displayName),
			Tags:     tags,
		},
		{
			ID:       fmt.Sprintf("social_%s_engagement", row.platform),
			Name:     fmt.Sprintf("%s Engagement Rate", displayName),
			Category: socialCategory,
			Value:    row.engagementRate,
			Unit:     "%",
			Status:   classifyEngagementRate(row.engagementRate),
			Context:  fmt.Sprintf("%.1f%% engagement against the %.0f%% healthy mark", row.engagementRate, engagementGoodThreshold),
			Tags:     tags,
		},
	}

	if row.recentPosts > 0 {
		metrics = append(metrics, common.MetricRecord{
			ID:       fmt.Sprintf("social_%s_posts", row.platform),
			Name:     fmt.Sprintf("%s Recent Posts", displayName),
			Category: socialCategory,
			Value:    float64(row.recentPosts),
			Unit:     "posts",
			Status:   common.StatusNeutral,
			Context:  fmt.Sprintf("Posts fetched in the latest %s snapshot", displayName),
			Tags:     tags,
		})
	}

	if row.hasGrowth {
		metrics = append(metrics, common.MetricRecord{
			ID:       fmt.Sprintf("social_%s_growth", row.platform),
			Name:     fmt.Sprintf("%s Follower Growth", displayName),
			Category: socialCategory,
			Value:    row.growthDelta,
			Unit:     "followers",
			Status:   classifyGrowthDelta(row.growthDelta),
			Context:  fmt.Sprintf("Change of %.0f followers since the previous snapshot", row.growthDelta),
			Tags:     tags,
		})
	}

	return metrics
}

func titleCase(s string) string {
	if len(s) == 0 {
		return s
	}

	firstRune, size := utf8.DecodeRuneInString(s)

	return strings.ToUpper(string(firstRune)) + s[size:]
}

// IsInterfaceNil returns true if the value under the interface is nil
func (adapter *socialAdapter) IsInterfaceNil() bool {
	return adapter == nil
}
