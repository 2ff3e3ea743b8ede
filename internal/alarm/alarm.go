// Package alarm defines the alarm kinds raised by the decision engine
// and the sink interface alarms are delivered through.
package alarm

import (
	"fmt"

	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
)

// Kind identifies a class of alarm raised by the engine.
type Kind int

const (
	// OffTrack fires when a moving subject has drifted beyond the
	// configured distance from the route.
	OffTrack Kind = iota
	// SignalLost fires when no fix has arrived within the configured
	// timeout, and again at the repeat interval while the outage
	// persists.
	SignalLost
	// PositiveAcknowledgement fires on reassuring transitions: coming
	// to a stop while on track, or fixes resuming after an outage.
	PositiveAcknowledgement
)

func (k Kind) String() string {
	switch k {
	case OffTrack:
		return "off_track"
	case SignalLost:
		return "signal_lost"
	case PositiveAcknowledgement:
		return "positive_ack"
	default:
		return "unknown"
	}
}

// ParseKind maps the journal/wire form back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "off_track":
		return OffTrack, nil
	case "signal_lost":
		return SignalLost, nil
	case "positive_ack":
		return PositiveAcknowledgement, nil
	}
	return 0, fmt.Errorf("unknown alarm kind %q", s)
}

// Sink receives alarms from the engine. Fire must not block for any
// meaningful time and must be safe to call from both the fix and timer
// goroutines.
type Sink interface {
	Fire(kind Kind)
}

// FuncSink adapts a plain function to the Sink interface.
type FuncSink func(Kind)

func (f FuncSink) Fire(kind Kind) { f(kind) }

// NopSink discards every alarm. The engine swaps it in on Close.
type NopSink struct{}

func (NopSink) Fire(Kind) {}

// LogSink writes each alarm through the monitoring logger. Useful as a
// development default when no real annunciator is wired.
type LogSink struct{}

func (LogSink) Fire(kind Kind) {
	monitoring.Logf("ALARM: %s", kind)
}

// MultiSink fans an alarm out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Fire(kind Kind) {
	for _, s := range m {
		s.Fire(kind)
	}
}
