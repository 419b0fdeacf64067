package ports

import "time"

// MetricsCollector records registry activity for observability.
type MetricsCollector interface {
	RecordURLRegistered(status string)
	RecordDatasetPublished(mimeType string)
	RecordReachabilityQuery(kind string)
	RecordConversion(status string, duration time.Duration)
	RecordConversionSteps(steps int)
	RecordViewInvoked(status string)
	RecordWorkerPoolStatus(idle, busy, stopped int)
	SetRegisteredURLs(count int)
}
