package engine

import (
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
)

// OffTrackPolicy throttles off-track alarms and emits a reassurance
// ping when a moving subject comes to rest on the route. Its state is
// two values: the tick of the last off-track alarm (zero until the
// first one fires) and whether the previous fix was classified as
// moving. It runs only on the single fix-ingest path.
type OffTrackPolicy struct {
	lastAlarmAtNanos int64
	wasMoving        bool
}

// Apply runs one fix through the alarm policy. onTrack and moving come
// from the proximity scan and the motion classifier, nowNanos from the
// fix's monotonic stamp, and minInterval from the live config. At most
// one alarm is fired per fix.
//
// A stationary off-track fix never alarms: with no movement the
// deviation reads as positioning drift rather than an actual departure
// from the route.
func (p *OffTrackPolicy) Apply(onTrack, moving bool, nowNanos int64, minInterval time.Duration, fire func(alarm.Kind)) {
	wasMoving := p.wasMoving
	p.wasMoving = moving

	if onTrack {
		if wasMoving && !moving {
			fire(alarm.PositiveAcknowledgement)
		}
		return
	}

	if !moving {
		return
	}

	if p.lastAlarmAtNanos != 0 && nowNanos-p.lastAlarmAtNanos < minInterval.Nanoseconds() {
		return
	}
	p.lastAlarmAtNanos = nowNanos
	fire(alarm.OffTrack)
}
