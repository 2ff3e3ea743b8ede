package track

// DefaultFixHistoryCapacity is the number of recent fixes retained for
// motion classification.
const DefaultFixHistoryCapacity = 3

// FixHistory is a fixed-capacity ring of recent fixes. Pushing into a
// full ring evicts the oldest entry. Not safe for concurrent use: the
// engine mutates it only on the single ingest path.
type FixHistory struct {
	buf   []TimedPoint
	start int
	count int
}

// NewFixHistory returns a history holding up to capacity fixes.
// Non-positive capacities fall back to DefaultFixHistoryCapacity.
func NewFixHistory(capacity int) *FixHistory {
	if capacity <= 0 {
		capacity = DefaultFixHistoryCapacity
	}
	return &FixHistory{buf: make([]TimedPoint, capacity)}
}

// Push appends a fix, evicting the oldest when the ring is full.
func (h *FixHistory) Push(p TimedPoint) {
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = p
		h.count++
		return
	}
	h.buf[h.start] = p
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of fixes currently held.
func (h *FixHistory) Len() int { return h.count }

// Last returns the most recently pushed fix, or false when empty.
func (h *FixHistory) Last() (TimedPoint, bool) {
	if h.count == 0 {
		return TimedPoint{}, false
	}
	return h.buf[(h.start+h.count-1)%len(h.buf)], true
}

// Points returns a copy of the held fixes, oldest first.
func (h *FixHistory) Points() []TimedPoint {
	out := make([]TimedPoint, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
