// Package api serves the tracking instance's HTTP surface: live
// status, journaled sessions and alarms, session reports, and runtime
// configuration.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/config"
	"github.com/bakitorunoglu/TrackRadar/internal/httputil"
	"github.com/bakitorunoglu/TrackRadar/internal/journal"
	"github.com/bakitorunoglu/TrackRadar/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// EngineStatus is the part of the tracking engine the API reads.
type EngineStatus interface {
	HasSignal() bool
}

type Server struct {
	eng       EngineStatus
	db        *journal.DB
	store     *config.Store
	sessionID string
	started   time.Time
}

// NewServer wires the API over a running engine and its journal.
// sessionID names the session this instance is recording; it may be
// empty for a server fronting only historical data.
func NewServer(eng EngineStatus, db *journal.DB, store *config.Store, sessionID string) *Server {
	return &Server{
		eng:       eng,
		db:        db,
		store:     store,
		sessionID: sessionID,
		started:   time.Now(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/session/stats", s.showSessionStats)
	mux.HandleFunc("/api/session/report", s.showSessionReport)
	mux.HandleFunc("/api/session/export", s.exportSessionReport)
	mux.HandleFunc("/api/alarms", s.listAlarms)
	mux.HandleFunc("/api/config", s.handleConfig)
	return mux
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	SessionID     string  `json:"session_id"`
	HasSignal     bool    `json:"has_signal"`
	Units         string  `json:"units"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, StatusResponse{
		SessionID:     s.sessionID,
		HasSignal:     s.eng.HasSignal(),
		Units:         s.store.Current().GetUnits(),
		UptimeSeconds: time.Since(s.started).Seconds(),
		Version:       version.String(),
	})
}
