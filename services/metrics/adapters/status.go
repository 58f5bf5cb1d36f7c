package adapters

import (
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
)

// Static classification thresholds. Status must stay a pure function of the value,
// so these are never configurable at runtime.
const (
	engagementGoodThreshold    = 3.0
	engagementWarningThreshold = 1.0

	activityGoodThreshold    = 10
	activityWarningThreshold = 3
)

func classifyEngagementRate(rate float64) common.MetricStatus {
	switch {
	case rate >= engagementGoodThreshold:
		return common.StatusGood
	case rate >= engagementWarningThreshold:
		return common.StatusWarning
	default:
		return common.StatusCritical
	}
}

func classifyGrowthDelta(delta float64) common.MetricStatus {
	if delta >= 0 {
		return common.StatusGood
	}

	return common.StatusCritical
}

func classifyActivityCount(count int) common.MetricStatus {
	switch {
	case count >= activityGoodThreshold:
		return common.StatusGood
	case count >= activityWarningThreshold:
		return common.StatusWarning
	default:
		return common.StatusCritical
	}
}
