package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompetitorAdapter(t *testing.T) {
	t.Parallel()

	t.Run("nil store should error", func(t *testing.T) {
		adapter, err := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store:   nil,
			MaxRows: 10,
		})

		assert.Nil(t, adapter)
		assert.True(t, adapter.IsInterfaceNil())
		assert.Equal(t, errNilRowStore, err)
	})
	t.Run("invalid row cap should error", func(t *testing.T) {
		adapter, err := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store:   &testsCommon.RowStoreStub{},
			MaxRows: 0,
		})

		assert.Nil(t, adapter)
		assert.Equal(t, errInvalidMaxRows, err)
	})
	t.Run("should work", func(t *testing.T) {
		adapter, err := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store:   &testsCommon.RowStoreStub{},
			MaxRows: 10,
		})

		assert.NotNil(t, adapter)
		assert.False(t, adapter.IsInterfaceNil())
		assert.Nil(t, err)
		assert.Equal(t, "competitor", adapter.Name())
		assert.Equal(t, "Competitor", adapter.Category())
	})
}

func TestCompetitorAdapter_GetMetricsOutcomes(t *testing.T) {
	t.Parallel()

	t.Run("fetch error reports failed availability", func(t *testing.T) {
		expectedErr := errors.New("store is down")
		adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store: &testsCommon.RowStoreStub{
				FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
					return nil, expectedErr
				},
			},
			MaxRows: 10,
		})

		result := adapter.GetMetrics(context.Background(), "user@example.com")
		require.NotNil(t, result)
		assert.False(t, result.Available)
		assert.Equal(t, common.AvailabilityFailed, result.Availability)
		assert.Equal(t, expectedErr.Error(), result.Reason)
	})
	t.Run("zero rows reports empty availability", func(t *testing.T) {
		adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store:   &testsCommon.RowStoreStub{},
			MaxRows: 10,
		})

		result := adapter.GetMetrics(context.Background(), "user@example.com")
		require.NotNil(t, result)
		assert.False(t, result.Available)
		assert.Equal(t, common.AvailabilityEmpty, result.Availability)
	})
	t.Run("fetch is capped to the most recent rows", func(t *testing.T) {
		var capturedDomain string
		var capturedQuery common.RowQuery
		adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store: &testsCommon.RowStoreStub{
				FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
					capturedDomain = domain
					capturedQuery = query
					return nil, nil
				},
			},
			MaxRows: 5,
		})

		_ = adapter.GetMetrics(context.Background(), "user@example.com")

		assert.Equal(t, common.DomainCompetitor, capturedDomain)
		assert.Equal(t, "user@example.com", capturedQuery.SubjectKey)
		assert.Equal(t, 5, capturedQuery.Limit)
		assert.False(t, capturedQuery.Ascending)
		assert.Zero(t, capturedQuery.MinFetchedAt)
	})
}

func TestCompetitorAdapter_ZeroScoreAveragedButNotEmitted(t *testing.T) {
	t.Parallel()

	now := time.Now().Unix()
	rows := []common.CacheRow{
		{
			Dimension: "a.com",
			Payload:   []byte(`{"competitor_domain":"a.com","lighthouse_data":{"performance":80,"seo":0}}`),
			FetchedAt: now,
		},
		{
			Dimension: "b.com",
			Payload:   []byte(`{"competitor_domain":"b.com","lighthouse_data":{"performance":60,"seo":90}}`),
			FetchedAt: now - 30,
		},
	}

	adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
		Store: &testsCommon.RowStoreStub{
			FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
				return rows, nil
			},
		},
		MaxRows: 10,
	})

	result := adapter.GetMetrics(context.Background(), "user@example.com")
	require.True(t, result.Available)
	require.Equal(t, []string{"a.com", "b.com"}, result.Competitors)

	count := findMetric(t, result.Metrics, "competitor_tracked_count")
	assert.Equal(t, float64(2), count.Value)

	avgPerformance := findMetric(t, result.Metrics, "competitor_avg_performance")
	assert.Equal(t, float64(70), avgPerformance.Value)

	// The zero SEO score of a.com emits no per-row metric but still counts as 0
	// in the average's numerator and denominator
	avgSEO := findMetric(t, result.Metrics, "competitor_avg_seo")
	assert.Equal(t, float64(45), avgSEO.Value)
	assert.False(t, hasMetric(result.Metrics, "competitor_a.com_seo"))

	bSEO := findMetric(t, result.Metrics, "competitor_b.com_seo")
	assert.Equal(t, float64(90), bSEO.Value)
	assert.Equal(t, []string{"b.com"}, bSEO.Tags)

	// The count summary leads the sequence
	assert.Equal(t, "competitor_tracked_count", result.Metrics[0].ID)

	// Every metric of this domain is neutral
	for _, metric := range result.Metrics {
		assert.Equal(t, common.StatusNeutral, metric.Status, "metric %s", metric.ID)
	}

	require.NotNil(t, result.LastUpdated)
	assert.Equal(t, now, result.LastUpdated.Unix())
}

func TestCompetitorAdapter_SummaryMeans(t *testing.T) {
	t.Parallel()

	t.Run("three rows, rounded half-up", func(t *testing.T) {
		rows := []common.CacheRow{
			{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":81,"seo":70},"backlink_data":{"total":100}}`), FetchedAt: 300},
			{Dimension: "b.com", Payload: []byte(`{"lighthouse_data":{"performance":60,"seo":71},"backlink_data":{"total":40}}`), FetchedAt: 200},
			{Dimension: "c.com", Payload: []byte(`{"lighthouse_data":{"performance":70,"seo":72},"backlink_data":{"total":10}}`), FetchedAt: 100},
		}

		adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store: &testsCommon.RowStoreStub{
				FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
					return rows, nil
				},
			},
			MaxRows: 10,
		})

		result := adapter.GetMetrics(context.Background(), "user@example.com")

		// (81+60+70)/3 = 70.33 -> 70, (70+71+72)/3 = 71, (100+40+10)/3 = 50
		assert.Equal(t, float64(70), findMetric(t, result.Metrics, "competitor_avg_performance").Value)
		assert.Equal(t, float64(71), findMetric(t, result.Metrics, "competitor_avg_seo").Value)
		assert.Equal(t, float64(50), findMetric(t, result.Metrics, "competitor_avg_backlinks").Value)
	})
	t.Run("half values round up", func(t *testing.T) {
		rows := []common.CacheRow{
			{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":80}}`), FetchedAt: 200},
			{Dimension: "b.com", Payload: []byte(`{"lighthouse_data":{"performance":81}}`), FetchedAt: 100},
		}

		adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store: &testsCommon.RowStoreStub{
				FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
					return rows, nil
				},
			},
			MaxRows: 10,
		})

		result := adapter.GetMetrics(context.Background(), "user@example.com")
		assert.Equal(t, float64(81), findMetric(t, result.Metrics, "competitor_avg_performance").Value)
	})
	t.Run("single row mean equals the row", func(t *testing.T) {
		rows := []common.CacheRow{
			{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":67,"seo":88},"backlink_data":{"total":12}}`), FetchedAt: 100},
		}

		adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
			Store: &testsCommon.RowStoreStub{
				FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
					return rows, nil
				},
			},
			MaxRows: 10,
		})

		result := adapter.GetMetrics(context.Background(), "user@example.com")
		assert.Equal(t, float64(67), findMetric(t, result.Metrics, "competitor_avg_performance").Value)
		assert.Equal(t, float64(88), findMetric(t, result.Metrics, "competitor_avg_seo").Value)
		assert.Equal(t, float64(12), findMetric(t, result.Metrics, "competitor_avg_backlinks").Value)
	})
}

func TestCompetitorAdapter_KeepsFreshestRowPerDomain(t *testing.T) {
	t.Parallel()

	// Re-ingesting an analysis appends a second row for the same domain
	rows := []common.CacheRow{
		{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":80}}`), FetchedAt: 200},
		{Dimension: "b.com", Payload: []byte(`{"lighthouse_data":{"performance":60}}`), FetchedAt: 150},
		{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":75}}`), FetchedAt: 100},
	}

	adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
		Store: &testsCommon.RowStoreStub{
			FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
				return rows, nil
			},
		},
		MaxRows: 10,
	})

	result := adapter.GetMetrics(context.Background(), "user@example.com")
	require.True(t, result.Available)

	// Only the freshest a.com row survives
	assert.Equal(t, []string{"a.com", "b.com"}, result.Competitors)
	assert.Equal(t, float64(2), findMetric(t, result.Metrics, "competitor_tracked_count").Value)
	assert.Equal(t, float64(80), findMetric(t, result.Metrics, "competitor_a.com_performance").Value)
	assert.Equal(t, float64(70), findMetric(t, result.Metrics, "competitor_avg_performance").Value)
	assert.Contains(t, string(result.RawData["a.com"]), `"performance":80`)

	numOccurrences := make(map[string]int)
	for _, metric := range result.Metrics {
		numOccurrences[metric.ID]++
		assert.Equal(t, 1, numOccurrences[metric.ID], "metric id %s emitted more than once", metric.ID)
	}
}

func TestCompetitorAdapter_ResortsUnorderedRows(t *testing.T) {
	t.Parallel()

	// Store-defined order is ascending here, the adapter must still keep the freshest
	rows := []common.CacheRow{
		{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":75}}`), FetchedAt: 100},
		{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":80}}`), FetchedAt: 200},
	}

	adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
		Store: &testsCommon.RowStoreStub{
			FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
				return rows, nil
			},
		},
		MaxRows: 10,
	})

	result := adapter.GetMetrics(context.Background(), "user@example.com")
	assert.Equal(t, float64(80), findMetric(t, result.Metrics, "competitor_a.com_performance").Value)

	require.NotNil(t, result.LastUpdated)
	assert.Equal(t, int64(200), result.LastUpdated.Unix())
}

func TestCompetitorAdapter_OmitsNotApplicableMetrics(t *testing.T) {
	t.Parallel()

	rows := []common.CacheRow{
		{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":80}}`), FetchedAt: 100},
	}

	adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
		Store: &testsCommon.RowStoreStub{
			FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
				return rows, nil
			},
		},
		MaxRows: 10,
	})

	result := adapter.GetMetrics(context.Background(), "user@example.com")

	assert.True(t, hasMetric(result.Metrics, "competitor_a.com_performance"))
	assert.False(t, hasMetric(result.Metrics, "competitor_a.com_seo"))
	assert.False(t, hasMetric(result.Metrics, "competitor_a.com_backlinks"))

	// Absent values are never emitted as 0
	for _, metric := range result.Metrics {
		if len(metric.Tags) > 0 {
			assert.NotZero(t, metric.Value, "per-row metric %s", metric.ID)
		}
	}
}

func TestCompetitorAdapter_Deterministic(t *testing.T) {
	t.Parallel()

	rows := []common.CacheRow{
		{Dimension: "a.com", Payload: []byte(`{"lighthouse_data":{"performance":80,"seo":0}}`), FetchedAt: 200},
		{Dimension: "b.com", Payload: []byte(`{"lighthouse_data":{"performance":60,"seo":90}}`), FetchedAt: 100},
	}

	adapter, _ := NewCompetitorAdapter(ArgsCompetitorAdapter{
		Store: &testsCommon.RowStoreStub{
			FetchRowsHandler: func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
				return rows, nil
			},
		},
		MaxRows: 10,
	})

	firstResult := adapter.GetMetrics(context.Background(), "user@example.com")
	secondResult := adapter.GetMetrics(context.Background(), "user@example.com")

	assert.Equal(t, firstResult.Metrics, secondResult.Metrics)
	assert.Equal(t, firstResult.Competitors, secondResult.Competitors)
}
