// Package journal persists tracking sessions, fixes, and alarm events
// to a local sqlite database. The schema is owned by the embedded
// migrations under migrations/; Open does not create or alter tables.
package journal

import (
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
)

// ErrNotFound reports a lookup for a session that was never recorded.
var ErrNotFound = errors.New("not found")

type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the journal database at path.
// WAL journaling and a busy timeout are applied per connection so the
// recording path and the admin read paths can share the file.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+
		"?_pragma=journal_mode(WAL)"+
		"&_pragma=busy_timeout(5000)"+
		"&_pragma=synchronous(NORMAL)"+
		"&_pragma=temp_store(2)"+
		"&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &DB{db}, nil
}

// Session is one tracked run against a route, from daemon start (or
// route change) until shutdown.
type Session struct {
	ID        string     `json:"session_id"`
	RouteName string     `json:"route_name"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// StartSession records the beginning of a tracked run and returns the
// new session with its generated ID.
func (db *DB) StartSession(routeName string, at time.Time) (*Session, error) {
	s := &Session{
		ID:        "ses_" + uuid.New().String(),
		RouteName: routeName,
		StartedAt: at,
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, route_name, started_at_ns) VALUES (?, ?, ?)`,
		s.ID, s.RouteName, s.StartedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// EndSession stamps the session's end time. Ending an already ended
// session overwrites the previous end time.
func (db *DB) EndSession(id string, at time.Time) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_at_ns = ? WHERE session_id = ?`,
		at.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// Session returns a single session by ID.
func (db *DB) Session(id string) (*Session, error) {
	row := db.QueryRow(
		`SELECT session_id, route_name, started_at_ns, ended_at_ns FROM sessions WHERE session_id = ?`,
		id,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}

// Sessions returns recent sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, route_name, started_at_ns, ended_at_ns FROM sessions ORDER BY started_at_ns DESC LIMIT 100`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// LatestSession returns the most recently started session.
func (db *DB) LatestSession() (*Session, error) {
	row := db.QueryRow(
		`SELECT session_id, route_name, started_at_ns, ended_at_ns FROM sessions ORDER BY started_at_ns DESC LIMIT 1`)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("latest session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	var startedNs int64
	var endedNs sql.NullInt64
	if err := row.Scan(&s.ID, &s.RouteName, &startedNs, &endedNs); err != nil {
		return nil, err
	}
	s.StartedAt = time.Unix(0, startedNs).UTC()
	if endedNs.Valid {
		t := time.Unix(0, endedNs.Int64).UTC()
		s.EndedAt = &t
	}
	return &s, nil
}

// Fix is one journaled position report together with the engine's
// verdict on it. DistanceM is the accuracy-adjusted distance from the
// route, always non-negative; OnTrack carries the verdict.
type Fix struct {
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	AccuracyM float64   `json:"accuracy_m"`
	DistanceM float64   `json:"distance_m"`
	OnTrack   bool      `json:"on_track"`
}

// RecordFix appends a fix to the session's journal. The session must
// already exist.
func (db *DB) RecordFix(f Fix) error {
	_, err := db.Exec(
		`INSERT INTO fixes (session_id, at_ns, latitude, longitude, accuracy_m, distance_m, on_track)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.SessionID, f.At.UnixNano(), f.Lat, f.Lon, f.AccuracyM, f.DistanceM, f.OnTrack,
	)
	if err != nil {
		return fmt.Errorf("insert fix: %w", err)
	}
	return nil
}

// Fixes returns every fix for a session in chronological order.
func (db *DB) Fixes(sessionID string) ([]Fix, error) {
	rows, err := db.Query(
		`SELECT session_id, at_ns, latitude, longitude, accuracy_m, distance_m, on_track
		 FROM fixes WHERE session_id = ? ORDER BY at_ns ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query fixes: %w", err)
	}
	defer rows.Close()

	var fixes []Fix
	for rows.Next() {
		var f Fix
		var atNs int64
		if err := rows.Scan(&f.SessionID, &atNs, &f.Lat, &f.Lon, &f.AccuracyM, &f.DistanceM, &f.OnTrack); err != nil {
			return nil, fmt.Errorf("scan fix: %w", err)
		}
		f.At = time.Unix(0, atNs).UTC()
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}

// Alarm is one journaled alarm event.
type Alarm struct {
	ID        string    `json:"alarm_id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
}

// RecordAlarm appends an alarm event to the session's journal and
// returns the stored record.
func (db *DB) RecordAlarm(sessionID string, kind alarm.Kind, at time.Time) (*Alarm, error) {
	a := &Alarm{
		ID:        "alm_" + uuid.New().String(),
		SessionID: sessionID,
		Kind:      kind.String(),
		At:        at,
	}
	_, err := db.Exec(
		`INSERT INTO alarms (alarm_id, session_id, kind, at_ns) VALUES (?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Kind, a.At.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert alarm: %w", err)
	}
	return a, nil
}

// Alarms returns every alarm for a session in chronological order.
func (db *DB) Alarms(sessionID string) ([]Alarm, error) {
	rows, err := db.Query(
		`SELECT alarm_id, session_id, kind, at_ns FROM alarms WHERE session_id = ? ORDER BY at_ns ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()
	return collectAlarms(rows)
}

// RecentAlarms returns the most recent alarms across all sessions,
// newest first. A limit <= 0 selects the default of 100.
func (db *DB) RecentAlarms(limit int) ([]Alarm, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT alarm_id, session_id, kind, at_ns FROM alarms ORDER BY at_ns DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()
	return collectAlarms(rows)
}

func collectAlarms(rows *sql.Rows) ([]Alarm, error) {
	var alarms []Alarm
	for rows.Next() {
		var a Alarm
		var atNs int64
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Kind, &atNs); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		a.At = time.Unix(0, atNs).UTC()
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// Stats is a per-session rollup of the journal. FirstFixAt and
// LastFixAt are zero when the session holds no fixes.
type Stats struct {
	SessionID     string           `json:"session_id"`
	RouteName     string           `json:"route_name"`
	FixCount      int64            `json:"fix_count"`
	OffTrackCount int64            `json:"off_track_count"`
	FirstFixAt    time.Time        `json:"first_fix_at"`
	LastFixAt     time.Time        `json:"last_fix_at"`
	MaxDistanceM  float64          `json:"max_distance_m"`
	MeanAccuracyM float64          `json:"mean_accuracy_m"`
	AlarmCounts   map[string]int64 `json:"alarm_counts"`
}

// SessionStats aggregates the journal for one session.
func (db *DB) SessionStats(sessionID string) (*Stats, error) {
	s, err := db.Session(sessionID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		SessionID:   s.ID,
		RouteName:   s.RouteName,
		AlarmCounts: map[string]int64{},
	}

	var firstNs, lastNs int64
	err = db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN on_track THEN 0 ELSE 1 END), 0),
		        COALESCE(MIN(at_ns), 0),
		        COALESCE(MAX(at_ns), 0),
		        COALESCE(MAX(distance_m), 0),
		        COALESCE(AVG(accuracy_m), 0)
		 FROM fixes WHERE session_id = ?`,
		sessionID,
	).Scan(&stats.FixCount, &stats.OffTrackCount, &firstNs, &lastNs, &stats.MaxDistanceM, &stats.MeanAccuracyM)
	if err != nil {
		return nil, fmt.Errorf("aggregate fixes: %w", err)
	}
	if stats.FixCount > 0 {
		stats.FirstFixAt = time.Unix(0, firstNs).UTC()
		stats.LastFixAt = time.Unix(0, lastNs).UTC()
	}

	rows, err := db.Query(
		`SELECT kind, COUNT(*) FROM alarms WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate alarms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan alarm count: %w", err)
		}
		stats.AlarmCounts[kind] = n
	}
	return stats, rows.Err()
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://journal.db", db.DB, &tailsql.DBOptions{
		Label: "Tracking journal",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the journal now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("journal-backup-%d.db", time.Now().Unix())
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		// remove the on-disk copy once it has been streamed out
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupPath))
		w.Header().Set("Content-Type", "application/gzip")

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			log.Printf("Failed to stream backup file: %v", err)
		}
	}))
}
