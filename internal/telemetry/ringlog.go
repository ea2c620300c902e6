package telemetry

// LogCapacity is the fixed size of the rolling log view.
const LogCapacity = 50

// RingLog is a bounded, insertion-ordered sequence of rendered log
// lines. Appending beyond capacity evicts the oldest line. Lines are
// kept in append order with no deduplication. RingLog itself is not
// goroutine-safe; State's lock guards it.
type RingLog struct {
	capacity int
	lines    []string
}

// NewRingLog creates a RingLog. capacity <= 0 defaults to LogCapacity.
func NewRingLog(capacity int) *RingLog {
	if capacity <= 0 {
		capacity = LogCapacity
	}
	return &RingLog{capacity: capacity, lines: make([]string, 0, capacity)}
}

// Append adds line, evicting the oldest entry once the buffer is full.
func (r *RingLog) Append(line string) {
	if len(r.lines) == r.capacity {
		copy(r.lines, r.lines[1:])
		r.lines[len(r.lines)-1] = line
		return
	}
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the buffer in append order.
func (r *RingLog) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of buffered lines.
func (r *RingLog) Len() int {
	return len(r.lines)
}

// Reset drops all buffered lines.
func (r *RingLog) Reset() {
	r.lines = r.lines[:0]
}
