package journal

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
	"github.com/bakitorunoglu/TrackRadar/internal/timeutil"
)

type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (c *captureLogger) Log(level monitoring.Level, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, fmt.Sprintf(format, args...))
}

// TestAlarmRecorderPersistsAndForwards verifies the journal row and the pass-through
func TestAlarmRecorderPersistsAndForwards(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	var forwarded []alarm.Kind
	rec := NewAlarmRecorder(db, s.ID, alarm.FuncSink(func(k alarm.Kind) {
		forwarded = append(forwarded, k)
	}))
	clock := timeutil.NewMockClock(testBase)
	rec.clock = clock

	rec.Fire(alarm.OffTrack)
	clock.Advance(time.Second)
	rec.Fire(alarm.SignalLost)

	if len(forwarded) != 2 || forwarded[0] != alarm.OffTrack || forwarded[1] != alarm.SignalLost {
		t.Errorf("Expected both alarms forwarded in order, got %v", forwarded)
	}

	alarms, err := db.Alarms(s.ID)
	if err != nil {
		t.Fatalf("Alarms failed: %v", err)
	}
	if len(alarms) != 2 {
		t.Fatalf("Expected 2 journaled alarms, got %d", len(alarms))
	}
	if alarms[0].Kind != "off_track" || alarms[1].Kind != "signal_lost" {
		t.Errorf("Expected off_track then signal_lost, got %s, %s", alarms[0].Kind, alarms[1].Kind)
	}
	if !alarms[0].At.Equal(testBase) {
		t.Errorf("Expected first alarm at %v, got %v", testBase, alarms[0].At)
	}
	if !alarms[1].At.Equal(testBase.Add(time.Second)) {
		t.Errorf("Expected second alarm at %v, got %v", testBase.Add(time.Second), alarms[1].At)
	}
}

// TestAlarmRecorderNilNext verifies a nil next sink is tolerated
func TestAlarmRecorderNilNext(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	rec := NewAlarmRecorder(db, s.ID, nil)
	rec.Fire(alarm.PositiveAcknowledgement)

	alarms, err := db.Alarms(s.ID)
	if err != nil {
		t.Fatalf("Alarms failed: %v", err)
	}
	if len(alarms) != 1 || alarms[0].Kind != "positive_ack" {
		t.Errorf("Expected one positive_ack alarm, got %v", alarms)
	}
}

// TestAlarmRecorderSurvivesJournalError verifies a write failure is logged, not fatal
func TestAlarmRecorderSurvivesJournalError(t *testing.T) {
	db := openTestJournal(t)

	// No session row exists, so the insert hits the foreign key.
	var forwarded []alarm.Kind
	rec := NewAlarmRecorder(db, "ses_missing", alarm.FuncSink(func(k alarm.Kind) {
		forwarded = append(forwarded, k)
	}))
	logger := &captureLogger{}
	rec.logger = logger

	rec.Fire(alarm.OffTrack)

	if len(forwarded) != 1 || forwarded[0] != alarm.OffTrack {
		t.Errorf("Expected alarm still forwarded after journal failure, got %v", forwarded)
	}

	alarms, err := db.Alarms("ses_missing")
	if err != nil {
		t.Fatalf("Alarms failed: %v", err)
	}
	if len(alarms) != 0 {
		t.Errorf("Expected no journaled alarms, got %v", alarms)
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.entries) != 1 || !strings.Contains(logger.entries[0], "record off_track alarm") {
		t.Errorf("Expected one journal failure log entry, got %v", logger.entries)
	}
}
