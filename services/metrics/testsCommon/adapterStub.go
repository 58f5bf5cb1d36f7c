package testsCommon

import (
	"context"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
)

// AdapterStub -
type AdapterStub struct {
	NameField         string
	CategoryField     string
	GetMetricsHandler func(ctx context.Context, subjectKey string) *common.AdapterResult
}

// Name -
func (stub *AdapterStub) Name() string {
	return stub.NameField
}

// Category -
func (stub *AdapterStub) Category() string {
	return stub.CategoryField
}

// GetMetrics -
func (stub *AdapterStub) GetMetrics(ctx context.Context, subjectKey string) *common.AdapterResult {
	if stub.GetMetricsHandler != nil {
		return stub.GetMetricsHandler(ctx, subjectKey)
	}

	return common.NewEmptyResult()
}

// IsInterfaceNil -
func (stub *AdapterStub) IsInterfaceNil() bool {
	return stub == nil
}
