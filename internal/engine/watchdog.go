package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
	"github.com/bakitorunoglu/TrackRadar/internal/config"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
	"github.com/bakitorunoglu/TrackRadar/internal/timeutil"
)

const (
	// minCheckDelay keeps a zero or negative remainder from turning
	// into a hot rescheduling loop.
	minCheckDelay = 10 * time.Millisecond

	// panicRetryDelay re-arms the check timer after a recovered panic
	// so the watchdog never permanently stops.
	panicRetryDelay = 10 * time.Second
)

// watchState is the watchdog state at one instant. misses == 0 means
// the signal is present; n >= 1 counts consecutive no-signal alarms.
type watchState struct {
	misses              int64
	lastFixAtNanos      int64
	lastNoSignalAtNanos int64
}

// watchConfig carries the two intervals re-read from config on every
// check, so runtime changes take effect at the next wake-up.
type watchConfig struct {
	firstTimeout   time.Duration
	repeatInterval time.Duration
}

// nextCheck is the watchdog's decision function: given the state, the
// current tick and the live intervals, it returns the state after this
// check, the delay before the next check, and whether a SignalLost
// alarm fires now. It touches no clock and no shared memory.
//
// The next delay is the remaining time to the pending deadline (or the
// full repeat interval after a fire), capped at the smaller of the two
// configured intervals. The cap bounds detection latency even when the
// intervals change between checks.
func nextCheck(st watchState, nowNanos int64, cfg watchConfig) (watchState, time.Duration, bool) {
	maxDelay := cfg.firstTimeout
	if cfg.repeatInterval < maxDelay {
		maxDelay = cfg.repeatInterval
	}

	var remaining time.Duration
	fired := false

	if st.misses == 0 {
		elapsed := time.Duration(nowNanos - st.lastFixAtNanos)
		if elapsed > cfg.firstTimeout {
			st.misses = 1
			st.lastNoSignalAtNanos = nowNanos
			fired = true
			remaining = cfg.repeatInterval
		} else {
			remaining = cfg.firstTimeout - elapsed
		}
	} else {
		elapsed := time.Duration(nowNanos - st.lastNoSignalAtNanos)
		if elapsed > cfg.repeatInterval {
			st.misses++
			st.lastNoSignalAtNanos = nowNanos
			fired = true
			remaining = cfg.repeatInterval
		} else {
			remaining = cfg.repeatInterval - elapsed
		}
	}

	if remaining > maxDelay {
		remaining = maxDelay
	}
	if remaining < minCheckDelay {
		remaining = minCheckDelay
	}
	return st, remaining, fired
}

// signalWatchdog detects loss and recovery of the fix stream with a
// self-rescheduling one-shot timer. The fix path (update) and the
// timer path (run) share only atomics; the single mutex serialises the
// timer callback against close and never touches the fix path.
type signalWatchdog struct {
	clock  timeutil.Clock
	start  time.Time
	cfg    config.Source
	logger monitoring.Logger
	fire   func(alarm.Kind)

	misses              atomic.Int64
	lastFixAtNanos      atomic.Int64
	lastNoSignalAtNanos atomic.Int64

	closed atomic.Bool
	runMu  sync.Mutex
	timer  timeutil.Timer
}

// newWatchdog arms the check timer immediately, treating the moment of
// construction as the last fix.
func newWatchdog(clock timeutil.Clock, start time.Time, cfg config.Source, logger monitoring.Logger, fire func(alarm.Kind)) *signalWatchdog {
	w := &signalWatchdog{
		clock:  clock,
		start:  start,
		cfg:    cfg,
		logger: logger,
		fire:   fire,
	}
	now := w.ticks()
	w.lastFixAtNanos.Store(now)

	_, delay, _ := nextCheck(w.snapshot(), now, w.intervals())

	// The callback dereferences w.timer; holding runMu across the
	// assignment keeps an immediately-firing timer from seeing it nil.
	w.runMu.Lock()
	w.timer = clock.AfterFunc(delay, w.run)
	w.runMu.Unlock()
	return w
}

func (w *signalWatchdog) ticks() int64 {
	return w.clock.Since(w.start).Nanoseconds()
}

func (w *signalWatchdog) snapshot() watchState {
	return watchState{
		misses:              w.misses.Load(),
		lastFixAtNanos:      w.lastFixAtNanos.Load(),
		lastNoSignalAtNanos: w.lastNoSignalAtNanos.Load(),
	}
}

func (w *signalWatchdog) intervals() watchConfig {
	s := w.cfg.Current()
	return watchConfig{
		firstTimeout:   s.GetNoSignalFirstTimeout(),
		repeatInterval: s.GetNoSignalRepeatInterval(),
	}
}

// update records a fresh fix. canAlarm is false when the same fix is
// about to raise an off-track alarm, keeping reacquisition quiet for
// that fix.
func (w *signalWatchdog) update(canAlarm bool) {
	w.lastFixAtNanos.Store(w.ticks())
	prev := w.misses.Swap(0)
	if prev == 0 {
		return
	}
	w.logger.Log(monitoring.LevelInfo, "signal reacquired after %d no-signal alarms", prev)
	if canAlarm {
		w.fire(alarm.PositiveAcknowledgement)
	}
}

// hasSignal is a single lock-free load.
func (w *signalWatchdog) hasSignal() bool {
	return w.misses.Load() == 0
}

// run is the timer callback. Every invocation evaluates the decision
// function, commits any miss-count transition, fires, and re-arms the
// timer with the computed delay. A panic is recovered and the timer
// re-armed with a fixed fallback.
func (w *signalWatchdog) run() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.closed.Load() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Log(monitoring.LevelError, "watchdog check panicked: %v, retrying in %s", r, panicRetryDelay)
			w.timer.Reset(panicRetryDelay)
		}
	}()

	now := w.ticks()
	before := w.snapshot()
	after, delay, fired := nextCheck(before, now, w.intervals())

	// The compare-and-swap commits the transition only if no fix
	// arrived since the snapshot; a fix that lands mid-check wins and
	// the alarm is skipped.
	if fired && w.misses.CompareAndSwap(before.misses, after.misses) {
		w.lastNoSignalAtNanos.Store(after.lastNoSignalAtNanos)
		w.logger.Log(monitoring.LevelWarn, "signal lost: consecutive no-signal alarm %d", after.misses)
		w.fire(alarm.SignalLost)
	}

	w.timer.Reset(delay)
}

// close stops the timer and waits out any in-flight callback. After it
// returns no further check will run. Safe to call more than once.
func (w *signalWatchdog) close() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	w.runMu.Lock()
	defer w.runMu.Unlock()
	w.timer.Stop()
}
