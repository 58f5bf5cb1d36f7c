package testsCommon

import (
	"context"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
)

// AggregatorStub -
type AggregatorStub struct {
	AggregateHandler        func(ctx context.Context, keys map[string]string) common.AggregateResult
	AdapterNamesHandler     func() []string
	GetAdapterResultHandler func(ctx context.Context, adapterName string, subjectKey string) (*common.AdapterResult, error)
}

// Aggregate -
func (stub *AggregatorStub) Aggregate(ctx context.Context, keys map[string]string) common.AggregateResult {
	if stub.AggregateHandler != nil {
		return stub.AggregateHandler(ctx, keys)
	}

	return common.AggregateResult{
		Metrics:    make([]common.MetricRecord, 0),
		ByCategory: make(map[string][]common.MetricRecord),
		Sources:    make(map[string]*common.AdapterResult),
	}
}

// AdapterNames -
func (stub *AggregatorStub) AdapterNames() []string {
	if stub.AdapterNamesHandler != nil {
		return stub.AdapterNamesHandler()
	}

	return make([]string, 0)
}

// GetAdapterResult -
func (stub *AggregatorStub) GetAdapterResult(ctx context.Context, adapterName string, subjectKey string) (*common.AdapterResult, error) {
	if stub.GetAdapterResultHandler != nil {
		return stub.GetAdapterResultHandler(ctx, adapterName, subjectKey)
	}

	return common.NewEmptyResult(), nil
}

// IsInterfaceNil -
func (stub *AggregatorStub) IsInterfaceNil() bool {
	return stub == nil
}
