package testsCommon

import (
	"context"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
)

// RowStoreStub -
type RowStoreStub struct {
	SaveRowHandler           func(ctx context.Context, domain string, row common.CacheRow) error
	FetchRowsHandler         func(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error)
	DeleteSubjectRowsHandler func(ctx context.Context, domain string, subjectKey string) error
	CountRowsHandler         func(ctx context.Context) (map[string]int, error)
	CloseHandler             func() error
}

// SaveRow -
func (stub *RowStoreStub) SaveRow(ctx context.Context, domain string, row common.CacheRow) error {
	if stub.SaveRowHandler != nil {
		return stub.SaveRowHandler(ctx, domain, row)
	}

	return nil
}

// FetchRows -
func (stub *RowStoreStub) FetchRows(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
	if stub.FetchRowsHandler != nil {
		return stub.FetchRowsHandler(ctx, domain, query)
	}

	return make([]common.CacheRow, 0), nil
}

// DeleteSubjectRows -
func (stub *RowStoreStub) DeleteSubjectRows(ctx context.Context, domain string, subjectKey string) error {
	if stub.DeleteSubjectRowsHandler != nil {
		return stub.DeleteSubjectRowsHandler(ctx, domain, subjectKey)
	}

	return nil
}

// CountRows -
func (stub *RowStoreStub) CountRows(ctx context.Context) (map[string]int, error) {
	if stub.CountRowsHandler != nil {
		return stub.CountRowsHandler(ctx)
	}

	return make(map[string]int), nil
}

// Close -
func (stub *RowStoreStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *RowStoreStub) IsInterfaceNil() bool {
	return stub == nil
}
