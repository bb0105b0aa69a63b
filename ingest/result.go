package ingest

// ErrorKind classifies ingestion failures.
type ErrorKind string

const (
	KindFatalOpen         ErrorKind = "open_failed"
	KindComponentMissing  ErrorKind = "missing_components"
	KindFeatureProcessing ErrorKind = "feature_processing"
	KindBatchWrite        ErrorKind = "batch_write"
)

// maxReportedErrors bounds the error detail returned to clients. Counts stay
// exact even when the list is truncated.
const maxReportedErrors = 10

// IngestError is one recorded failure, returned as data rather than raised.
type IngestError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Context string    `json:"context,omitempty"`
}

// Result is the outcome of one ingestion call. One instance per upload,
// discarded after the response.
type Result struct {
	Success        bool          `json:"success"`
	ProcessedCount int           `json:"processedCount"`
	ErrorCount     int           `json:"errorCount"`
	Errors         []IngestError `json:"errors,omitempty"`
	Message        string        `json:"message"`
}
