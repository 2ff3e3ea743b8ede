package journal

import (
	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
	"github.com/bakitorunoglu/TrackRadar/internal/timeutil"
)

// AlarmRecorder journals every alarm for one session before handing it
// on to the next sink. It implements alarm.Sink. A journal write
// failure is logged and the alarm still reaches the next sink; the
// annunciator path must not depend on the journal being writable.
type AlarmRecorder struct {
	db        *DB
	sessionID string
	next      alarm.Sink

	clock  timeutil.Clock
	logger monitoring.Logger
}

// NewAlarmRecorder returns a recorder journaling into db under
// sessionID. A nil next sink discards alarms after recording.
func NewAlarmRecorder(db *DB, sessionID string, next alarm.Sink) *AlarmRecorder {
	if next == nil {
		next = alarm.NopSink{}
	}
	return &AlarmRecorder{
		db:        db,
		sessionID: sessionID,
		next:      next,
		clock:     timeutil.RealClock{},
		logger:    monitoring.LogLogger{},
	}
}

func (r *AlarmRecorder) Fire(kind alarm.Kind) {
	if _, err := r.db.RecordAlarm(r.sessionID, kind, r.clock.Now()); err != nil {
		r.logger.Log(monitoring.LevelError, "journal: record %s alarm: %v", kind, err)
	}
	r.next.Fire(kind)
}
