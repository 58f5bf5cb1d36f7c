package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/adapters"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("aggregator")

// aggregator drives all registered adapters for one subject and merges their
// outputs. Adapters are read-only and independent, so they run concurrently.
type aggregator struct {
	adapters []adapters.Adapter
}

// NewAggregator creates a new metrics aggregator over the provided adapters
func NewAggregator(adaptersList []adapters.Adapter) (*aggregator, error) {
	if len(adaptersList) == 0 {
		return nil, errNoAdapters
	}

	seenNames := make(map[string]struct{}, len(adaptersList))
	for index, adapter := range adaptersList {
		if check.IfNil(adapter) {
			return nil, fmt.Errorf("%w at index %d", errNilAdapter, index)
		}

		_, found := seenNames[adapter.Name()]
		if found {
			return nil, fmt.Errorf("%w: %s", errDuplicatedName, adapter.Name())
		}
		seenNames[adapter.Name()] = struct{}{}
	}

	return &aggregator{
		adapters: adaptersList,
	}, nil
}

// AdapterNames returns the registered adapter names in registration order
func (agg *aggregator) AdapterNames() []string {
	names := make([]string, 0, len(agg.adapters))
	for _, adapter := range agg.adapters {
		names = append(names, adapter.Name())
	}

	return names
}

// GetAdapterResult invokes a single adapter by name
func (agg *aggregator) GetAdapterResult(ctx context.Context, adapterName string, subjectKey string) (*common.AdapterResult, error) {
	for _, adapter := range agg.adapters {
		if adapter.Name() == adapterName {
			return adapter.GetMetrics(ctx, subjectKey), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", errUnknownAdapter, adapterName)
}

// Aggregate invokes every registered adapter concurrently, using the per-adapter
// subject key from the keys map. Adapters with no resolved key are skipped, and
// results that carry no data are discarded from the merged view but still listed
// in Sources.
func (agg *aggregator) Aggregate(ctx context.Context, keys map[string]string) common.AggregateResult {
	results := make(map[string]*common.AdapterResult, len(agg.adapters))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, adapter := range agg.adapters {
		key := keys[adapter.Name()]
		if key == "" {
			log.Debug("no subject key resolved for adapter", "adapter", adapter.Name())
			continue
		}

		wg.Add(1)
		go func(adapter adapters.Adapter, subjectKey string) {
			defer wg.Done()

			result := adapter.GetMetrics(ctx, subjectKey)

			mu.Lock()
			results[adapter.Name()] = result
			mu.Unlock()
		}(adapter, key)
	}
	wg.Wait()

	merged := common.AggregateResult{
		Metrics:    make([]common.MetricRecord, 0),
		ByCategory: make(map[string][]common.MetricRecord),
		Sources:    results,
	}

	// Merge in registration order so the output stays deterministic. Metric ids are
	// unique only within one adapter; the adapters keep the merged sequence
	// collision-free by prefixing ids with their domain tag.
	for _, adapter := range agg.adapters {
		result, found := results[adapter.Name()]
		if !found {
			continue
		}
		if result.Availability != common.AvailabilityData {
			log.Debug("adapter contributed no data", "adapter", adapter.Name(), "availability", result.Availability)
			continue
		}

		merged.Metrics = append(merged.Metrics, result.Metrics...)
		for _, metric := range result.Metrics {
			merged.ByCategory[metric.Category] = append(merged.ByCategory[metric.Category], metric)
		}

		lastUpdatedIsFresher := result.LastUpdated != nil &&
			(merged.LastUpdated == nil || result.LastUpdated.After(*merged.LastUpdated))
		if lastUpdatedIsFresher {
			merged.LastUpdated = result.LastUpdated
		}
	}

	return merged
}

// IsInterfaceNil returns true if the value under the interface is nil
func (agg *aggregator) IsInterfaceNil() bool {
	return agg == nil
}
