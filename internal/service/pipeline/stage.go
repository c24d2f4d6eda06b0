package pipeline

// Stage tracks how far a single invocation progressed. Stages exist for
// logging and tracing only; nothing persists them.
type Stage int

const (
	StageReceived Stage = iota
	StageValidated
	StageRejected
	StageEnriched
	StagePrimaryWritten
	StageBackedUp
	StageMetricEmitted
	StageResponded
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "RECEIVED"
	case StageValidated:
		return "VALIDATED"
	case StageRejected:
		return "REJECTED"
	case StageEnriched:
		return "ENRICHED"
	case StagePrimaryWritten:
		return "PRIMARY_WRITTEN"
	case StageBackedUp:
		return "BACKED_UP"
	case StageMetricEmitted:
		return "METRIC_EMITTED"
	case StageResponded:
		return "RESPONDED"
	case StageFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
