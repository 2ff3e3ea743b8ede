// Package engine implements the route-deviation and signal-loss alarm
// decision core: proximity evaluation, motion classification, the
// off-track alarm policy and the signal watchdog, behind a single
// Engine facade created per tracking session.
package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
	"github.com/bakitorunoglu/TrackRadar/internal/atomicx"
	"github.com/bakitorunoglu/TrackRadar/internal/config"
	"github.com/bakitorunoglu/TrackRadar/internal/geo"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
	"github.com/bakitorunoglu/TrackRadar/internal/timeutil"
	"github.com/bakitorunoglu/TrackRadar/internal/track"
)

// Options configures New. Nil fields fall back to a default config
// store, a no-op sink, a no-op logger and the real clock.
type Options struct {
	Config config.Source
	Sink   alarm.Sink
	Logger monitoring.Logger
	Clock  timeutil.Clock
}

// Engine owns one tracking session's alarm state: it consumes the fix
// stream, raises alarms through the active sink, and answers signal
// and distance queries. All counters live on the instance; there is no
// package-level state.
type Engine struct {
	route  *track.Route
	cfg    config.Source
	logger monitoring.Logger
	clock  timeutil.Clock
	start  time.Time

	// sink holds the active alarm sink; Close and SetAlarmSink swap it
	// while fixes and timer checks may be in flight.
	sink *atomicx.Cell[alarm.Sink]

	motion   *MotionClassifier
	policy   *OffTrackPolicy
	watchdog *signalWatchdog

	closed atomic.Bool
}

// New builds an engine for route and starts its signal watchdog. The
// route may be nil or empty; every fix then reads as off-track at
// maximum distance.
func New(route *track.Route, opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewStore(nil)
	}
	if cfg.Current() == nil {
		return nil, errors.New("config source returned nil settings")
	}

	var sink alarm.Sink = opts.Sink
	if sink == nil {
		sink = alarm.NopSink{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	logger := monitoring.Safe(opts.Logger)

	e := &Engine{
		route:  route,
		cfg:    cfg,
		logger: logger,
		clock:  clock,
		start:  clock.Now(),
		sink:   atomicx.NewCell(sink),
		motion: NewMotionClassifier(),
		policy: &OffTrackPolicy{},
	}
	e.watchdog = newWatchdog(clock, e.start, cfg, logger, e.fireAlarm)

	e.logger.Log(monitoring.LevelInfo, "engine started: route %q, %d arcs", routeName(route), route.PairCount())
	return e, nil
}

// Stamp attaches the engine's monotonic tick to a point. Ticks count
// nanoseconds since engine construction and are immune to wall-clock
// adjustments.
func (e *Engine) Stamp(p geo.Point) track.TimedPoint {
	return track.TimedPoint{Point: p, AtNanos: e.clock.Since(e.start).Nanoseconds()}
}

// IngestFix runs one fix through the decision chain and returns the
// signed distance to the route: non-positive on-track, positive
// off-track, magnitude in meters. Fixes arrive one at a time; the
// ingest path is not safe for concurrent callers. Calling IngestFix
// after Close panics.
func (e *Engine) IngestFix(fix track.TimedPoint, accuracy float64) float64 {
	if e.closed.Load() {
		panic("engine: IngestFix after Close")
	}

	cfg := e.cfg.Current()
	onTrack, dist := Evaluate(fix.Point, accuracy, e.route, cfg.GetOnTrackThresholdMeters())
	moving := e.motion.Classify(fix)
	e.policy.Apply(onTrack, moving, fix.AtNanos, cfg.GetMinOffTrackInterval(), e.fireAlarm)

	// An off-track fix may alarm above; reacquisition stays quiet then.
	e.watchdog.update(dist <= 0)

	e.logger.Log(monitoring.LevelDebug, "fix lat=%.6f lon=%.6f acc=%.1fm dist=%.1fm moving=%v onTrack=%v",
		fix.Lat, fix.Lon, accuracy, dist, moving, onTrack)
	return dist
}

// HasSignal reports whether the fix stream is currently considered
// alive. Lock-free; safe from any goroutine, including after Close.
func (e *Engine) HasSignal() bool {
	return e.watchdog.hasSignal()
}

// SetAlarmSink replaces the active alarm sink at runtime and returns
// the previous one. A nil sink installs a no-op.
func (e *Engine) SetAlarmSink(s alarm.Sink) alarm.Sink {
	if s == nil {
		s = alarm.NopSink{}
	}
	return e.sink.Swap(s)
}

// Close tears the session down: it stops the watchdog, waits out any
// in-flight timer callback, and swaps the alarm sink for a no-op so a
// still-racing emission is dropped. Close is idempotent.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.watchdog.close()
	e.sink.Store(alarm.NopSink{})
	e.logger.Log(monitoring.LevelInfo, "engine closed")
	return nil
}

// fireAlarm is the single emission boundary: the per-kind config
// toggle applies here, after throttle state has already been updated,
// so a disabled kind still consumes its throttle window.
func (e *Engine) fireAlarm(kind alarm.Kind) {
	if !e.alarmEnabled(kind) {
		return
	}
	level := monitoring.LevelWarn
	if kind == alarm.PositiveAcknowledgement {
		level = monitoring.LevelInfo
	}
	e.logger.Log(level, "alarm: %s", kind)

	if sink := e.sink.Load(); sink != nil {
		sink.Fire(kind)
	}
}

func (e *Engine) alarmEnabled(kind alarm.Kind) bool {
	s := e.cfg.Current()
	switch kind {
	case alarm.OffTrack:
		return s.GetOffTrackAlarmEnabled()
	case alarm.SignalLost:
		return s.GetSignalLostAlarmEnabled()
	case alarm.PositiveAcknowledgement:
		return s.GetPositiveAckEnabled()
	default:
		return true
	}
}

func routeName(r *track.Route) string {
	if r == nil || r.Name == "" {
		return "(unnamed)"
	}
	return r.Name
}
