package journal

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
)

// openTestJournal opens a migrated journal in a per-test temp dir.
func openTestJournal(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("Failed to migrate journal: %v", err)
	}
	return db
}

var testBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// TestOpenAppliesPragmas verifies that essential PRAGMAs are set on new connections
func TestOpenAppliesPragmas(t *testing.T) {
	db := openTestJournal(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", foreignKeys)
	}
}

// TestStartAndEndSession covers the session lifecycle round trip
func TestStartAndEndSession(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if len(s.ID) <= len("ses_") || s.ID[:4] != "ses_" {
		t.Errorf("Expected session ID with ses_ prefix, got %q", s.ID)
	}
	if s.RouteName != "harbor-loop" {
		t.Errorf("Expected route name harbor-loop, got %q", s.RouteName)
	}

	loaded, err := db.Session(s.ID)
	if err != nil {
		t.Fatalf("Session lookup failed: %v", err)
	}
	if !loaded.StartedAt.Equal(testBase) {
		t.Errorf("Expected StartedAt %v, got %v", testBase, loaded.StartedAt)
	}
	if loaded.EndedAt != nil {
		t.Errorf("Expected open session, got EndedAt %v", loaded.EndedAt)
	}

	endAt := testBase.Add(42 * time.Minute)
	if err := db.EndSession(s.ID, endAt); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	loaded, err = db.Session(s.ID)
	if err != nil {
		t.Fatalf("Session lookup after end failed: %v", err)
	}
	if loaded.EndedAt == nil || !loaded.EndedAt.Equal(endAt) {
		t.Errorf("Expected EndedAt %v, got %v", endAt, loaded.EndedAt)
	}
}

// TestSessionLookupMissing verifies ErrNotFound on unknown sessions
func TestSessionLookupMissing(t *testing.T) {
	db := openTestJournal(t)

	if _, err := db.Session("ses_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Session, got %v", err)
	}
	if err := db.EndSession("ses_missing", testBase); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from EndSession, got %v", err)
	}
	if _, err := db.LatestSession(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from LatestSession on empty journal, got %v", err)
	}
}

// TestSessionsNewestFirst verifies list ordering and LatestSession
func TestSessionsNewestFirst(t *testing.T) {
	db := openTestJournal(t)

	first, err := db.StartSession("route-a", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	second, err := db.StartSession("route-b", testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	third, err := db.StartSession("route-c", testBase.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	sessions, err := db.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != third.ID || sessions[1].ID != second.ID || sessions[2].ID != first.ID {
		t.Errorf("Expected newest-first ordering, got %s, %s, %s",
			sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}

	latest, err := db.LatestSession()
	if err != nil {
		t.Fatalf("LatestSession failed: %v", err)
	}
	if latest.ID != third.ID {
		t.Errorf("Expected latest session %s, got %s", third.ID, latest.ID)
	}
}

// TestRecordFixAndQuery verifies fix round trips and chronological ordering
func TestRecordFixAndQuery(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	// Insert out of order; Fixes must come back chronological.
	inserts := []Fix{
		{SessionID: s.ID, At: testBase.Add(20 * time.Second), Lat: 41.03, Lon: 28.98, AccuracyM: 4, DistanceM: 3.2, OnTrack: true},
		{SessionID: s.ID, At: testBase, Lat: 41.01, Lon: 28.96, AccuracyM: 5, DistanceM: 1.1, OnTrack: true},
		{SessionID: s.ID, At: testBase.Add(10 * time.Second), Lat: 41.02, Lon: 28.97, AccuracyM: 6, DistanceM: 44.7, OnTrack: false},
	}
	for i, f := range inserts {
		if err := db.RecordFix(f); err != nil {
			t.Fatalf("RecordFix %d failed: %v", i, err)
		}
	}

	fixes, err := db.Fixes(s.ID)
	if err != nil {
		t.Fatalf("Fixes failed: %v", err)
	}
	if len(fixes) != 3 {
		t.Fatalf("Expected 3 fixes, got %d", len(fixes))
	}
	if !fixes[0].At.Equal(testBase) || !fixes[1].At.Equal(testBase.Add(10*time.Second)) || !fixes[2].At.Equal(testBase.Add(20*time.Second)) {
		t.Errorf("Expected chronological order, got %v, %v, %v", fixes[0].At, fixes[1].At, fixes[2].At)
	}
	if fixes[1].OnTrack || !fixes[0].OnTrack || !fixes[2].OnTrack {
		t.Errorf("OnTrack flags did not round trip: %+v", fixes)
	}
	if fixes[1].DistanceM != 44.7 || fixes[1].AccuracyM != 6 {
		t.Errorf("Fix values did not round trip: %+v", fixes[1])
	}
	if fixes[2].Lat != 41.03 || fixes[2].Lon != 28.98 {
		t.Errorf("Fix coordinates did not round trip: %+v", fixes[2])
	}
}

// TestRecordFixUnknownSession verifies the foreign key rejects orphan fixes
func TestRecordFixUnknownSession(t *testing.T) {
	db := openTestJournal(t)

	err := db.RecordFix(Fix{SessionID: "ses_missing", At: testBase, Lat: 1, Lon: 2})
	if err == nil {
		t.Fatal("Expected foreign key error recording a fix for an unknown session")
	}
}

// TestRecordAlarmAndQuery verifies alarm round trips and both query orders
func TestRecordAlarmAndQuery(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	kinds := []alarm.Kind{alarm.OffTrack, alarm.SignalLost, alarm.PositiveAcknowledgement}
	for i, k := range kinds {
		a, err := db.RecordAlarm(s.ID, k, testBase.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("RecordAlarm %v failed: %v", k, err)
		}
		if len(a.ID) <= len("alm_") || a.ID[:4] != "alm_" {
			t.Errorf("Expected alarm ID with alm_ prefix, got %q", a.ID)
		}
	}

	alarms, err := db.Alarms(s.ID)
	if err != nil {
		t.Fatalf("Alarms failed: %v", err)
	}
	if len(alarms) != 3 {
		t.Fatalf("Expected 3 alarms, got %d", len(alarms))
	}
	if alarms[0].Kind != "off_track" || alarms[1].Kind != "signal_lost" || alarms[2].Kind != "positive_ack" {
		t.Errorf("Expected chronological kinds, got %s, %s, %s", alarms[0].Kind, alarms[1].Kind, alarms[2].Kind)
	}
	if !alarms[1].At.Equal(testBase.Add(time.Minute)) {
		t.Errorf("Expected second alarm at %v, got %v", testBase.Add(time.Minute), alarms[1].At)
	}

	recent, err := db.RecentAlarms(2)
	if err != nil {
		t.Fatalf("RecentAlarms failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent alarms, got %d", len(recent))
	}
	if recent[0].Kind != "positive_ack" || recent[1].Kind != "signal_lost" {
		t.Errorf("Expected newest-first recent alarms, got %s, %s", recent[0].Kind, recent[1].Kind)
	}

	all, err := db.RecentAlarms(0)
	if err != nil {
		t.Fatalf("RecentAlarms with default limit failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected default limit to return all 3 alarms, got %d", len(all))
	}
}

// TestSessionStats verifies the per-session rollup
func TestSessionStats(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	fixes := []Fix{
		{SessionID: s.ID, At: testBase, Lat: 41.0, Lon: 28.9, AccuracyM: 4, DistanceM: 2, OnTrack: true},
		{SessionID: s.ID, At: testBase.Add(10 * time.Second), Lat: 41.0, Lon: 28.9, AccuracyM: 4, DistanceM: 3, OnTrack: true},
		{SessionID: s.ID, At: testBase.Add(20 * time.Second), Lat: 41.0, Lon: 28.9, AccuracyM: 6, DistanceM: 120, OnTrack: false},
		{SessionID: s.ID, At: testBase.Add(30 * time.Second), Lat: 41.0, Lon: 28.9, AccuracyM: 6, DistanceM: 4, OnTrack: true},
	}
	for i, f := range fixes {
		if err := db.RecordFix(f); err != nil {
			t.Fatalf("RecordFix %d failed: %v", i, err)
		}
	}
	for _, k := range []alarm.Kind{alarm.OffTrack, alarm.OffTrack, alarm.PositiveAcknowledgement} {
		if _, err := db.RecordAlarm(s.ID, k, testBase.Add(25*time.Second)); err != nil {
			t.Fatalf("RecordAlarm failed: %v", err)
		}
	}

	stats, err := db.SessionStats(s.ID)
	if err != nil {
		t.Fatalf("SessionStats failed: %v", err)
	}
	if stats.RouteName != "harbor-loop" {
		t.Errorf("Expected route name harbor-loop, got %q", stats.RouteName)
	}
	if stats.FixCount != 4 {
		t.Errorf("Expected 4 fixes, got %d", stats.FixCount)
	}
	if stats.OffTrackCount != 1 {
		t.Errorf("Expected 1 off-track fix, got %d", stats.OffTrackCount)
	}
	if !stats.FirstFixAt.Equal(testBase) {
		t.Errorf("Expected first fix at %v, got %v", testBase, stats.FirstFixAt)
	}
	if !stats.LastFixAt.Equal(testBase.Add(30 * time.Second)) {
		t.Errorf("Expected last fix at %v, got %v", testBase.Add(30*time.Second), stats.LastFixAt)
	}
	if stats.MaxDistanceM != 120 {
		t.Errorf("Expected max distance 120, got %f", stats.MaxDistanceM)
	}
	if math.Abs(stats.MeanAccuracyM-5.0) > 1e-9 {
		t.Errorf("Expected mean accuracy 5.0, got %f", stats.MeanAccuracyM)
	}
	if stats.AlarmCounts["off_track"] != 2 || stats.AlarmCounts["positive_ack"] != 1 {
		t.Errorf("Unexpected alarm counts: %v", stats.AlarmCounts)
	}
	if _, ok := stats.AlarmCounts["signal_lost"]; ok {
		t.Errorf("Expected no signal_lost entry, got %v", stats.AlarmCounts)
	}
}

// TestSessionStatsEmptySession verifies zero-value stats for a fresh session
func TestSessionStatsEmptySession(t *testing.T) {
	db := openTestJournal(t)

	s, err := db.StartSession("harbor-loop", testBase)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	stats, err := db.SessionStats(s.ID)
	if err != nil {
		t.Fatalf("SessionStats failed: %v", err)
	}
	if stats.FixCount != 0 {
		t.Errorf("Expected 0 fixes, got %d", stats.FixCount)
	}
	if !stats.FirstFixAt.IsZero() || !stats.LastFixAt.IsZero() {
		t.Errorf("Expected zero fix times, got %v and %v", stats.FirstFixAt, stats.LastFixAt)
	}
	if len(stats.AlarmCounts) != 0 {
		t.Errorf("Expected empty alarm counts, got %v", stats.AlarmCounts)
	}
}

// TestSessionStatsUnknownSession verifies the rollup refuses unknown IDs
func TestSessionStatsUnknownSession(t *testing.T) {
	db := openTestJournal(t)

	if _, err := db.SessionStats("ses_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
