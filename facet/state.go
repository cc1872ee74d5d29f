package facet

// State is the lifecycle position of a collector.
type State uint8

const (
	// StateUninitialized is the initial state: no segment prepared yet.
	StateUninitialized State = iota
	// StateSegmentPrepared means a segment's DocSet is loaded and no row was collected for it.
	StateSegmentPrepared
	// StateCollecting means at least one row was collected for the current segment.
	StateCollecting
	// StateFinalized is terminal.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSegmentPrepared:
		return "segment-prepared"
	case StateCollecting:
		return "collecting"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}
