package engine

import (
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/geo"
	"github.com/bakitorunoglu/TrackRadar/internal/track"
)

// walkingSpeedMetersPerSecond is the displacement rate above which a
// subject counts as moving. Anything faster than a stroll clears it;
// a stationary subject with ordinary GPS drift does not.
const walkingSpeedMetersPerSecond = 1.5

// MotionClassifier decides whether the subject is moving by comparing
// the displacement since the previous fix against a walking-speed
// allowance. It keeps a short rolling history of fixes; classification
// reads the history before the new fix is pushed.
type MotionClassifier struct {
	history *track.FixHistory
}

// NewMotionClassifier returns a classifier with an empty history.
func NewMotionClassifier() *MotionClassifier {
	return &MotionClassifier{
		history: track.NewFixHistory(track.DefaultFixHistoryCapacity),
	}
}

// Classify reports whether newFix shows movement relative to the most
// recent recorded fix, then records newFix. An empty history reads as
// not moving. Zero or negative elapsed time compares against a zero
// allowance, so any positive displacement still reads as moving.
func (m *MotionClassifier) Classify(newFix track.TimedPoint) bool {
	moving := false
	if last, ok := m.history.Last(); ok {
		elapsedSeconds := float64(newFix.AtNanos-last.AtNanos) / float64(time.Second)
		allowance := walkingSpeedMetersPerSecond * elapsedSeconds
		if allowance < 0 {
			allowance = 0
		}
		moving = geo.Distance(last.Point, newFix.Point) > allowance
	}
	m.history.Push(newFix)
	return moving
}
