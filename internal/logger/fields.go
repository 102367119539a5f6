package logger

// Canonical log field names shared across packages.
const (
	KeyID         = "id"
	KeyFrame      = "frame"
	KeyDurationMS = "duration_ms"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyCount      = "count"
	KeyFailed     = "failed"
	KeySkipped    = "skipped"
	KeyError      = "error"
)
