package schema

import "time"

// Recorder observes SchemaEnforcer outcomes for the metrics:
// json_pass_total, json_retry_pass_total, json_fail_total, json_enforce_ms,
// json_fallback_total. Satisfied by pkg/metrics; nil is a valid no-op.
type Recorder interface {
	JSONPass()
	JSONRetryPass()
	JSONFail()
	JSONFallback()
	JSONEnforceDuration(d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) JSONPass()                         {}
func (noopRecorder) JSONRetryPass()                    {}
func (noopRecorder) JSONFail()                         {}
func (noopRecorder) JSONFallback()                     {}
func (noopRecorder) JSONEnforceDuration(time.Duration) {}
