package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bakitorunoglu/TrackRadar/internal/httputil"
	"github.com/bakitorunoglu/TrackRadar/internal/journal"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
	"github.com/bakitorunoglu/TrackRadar/internal/report"
)

// handleSessions handles GET /api/sessions - list recent sessions
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sessions, err := s.db.Sessions()
	if err != nil {
		monitoring.Logf("api: fetch sessions: %v", err)
		httputil.InternalServerError(w, "Failed to fetch sessions")
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

// resolveSessionID picks the session named in the query, falling back
// to the session this instance is recording, then the newest one.
func (s *Server) resolveSessionID(r *http.Request) (string, error) {
	if id := r.URL.Query().Get("session"); id != "" {
		return id, nil
	}
	if s.sessionID != "" {
		return s.sessionID, nil
	}
	latest, err := s.db.LatestSession()
	if err != nil {
		return "", err
	}
	return latest.ID, nil
}

// showSessionStats handles GET /api/session/stats?session=<id>
func (s *Server) showSessionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id, err := s.resolveSessionID(r)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			httputil.NotFound(w, "No sessions recorded")
			return
		}
		monitoring.Logf("api: resolve session: %v", err)
		httputil.InternalServerError(w, "Failed to resolve session")
		return
	}

	stats, err := s.db.SessionStats(id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			httputil.NotFound(w, fmt.Sprintf("Session %s not found", id))
			return
		}
		monitoring.Logf("api: session stats %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to compute session stats")
		return
	}
	httputil.WriteJSONOK(w, stats)
}

// showSessionReport handles GET /api/session/report?session=<id> and
// renders the interactive HTML report for the session.
func (s *Server) showSessionReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id, err := s.resolveSessionID(r)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			httputil.NotFound(w, "No sessions recorded")
			return
		}
		monitoring.Logf("api: resolve session: %v", err)
		httputil.InternalServerError(w, "Failed to resolve session")
		return
	}

	session, err := s.db.Session(id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			httputil.NotFound(w, fmt.Sprintf("Session %s not found", id))
			return
		}
		monitoring.Logf("api: fetch session %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to fetch session")
		return
	}

	fixes, err := s.db.Fixes(id)
	if err != nil {
		monitoring.Logf("api: fetch fixes %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to fetch fixes")
		return
	}
	alarms, err := s.db.Alarms(id)
	if err != nil {
		monitoring.Logf("api: fetch alarms %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to fetch alarms")
		return
	}

	summary := report.Summarize(session, fixes, alarms)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, summary, fixes); err != nil {
		// Headers are gone by now; the client gets a truncated page.
		monitoring.Logf("api: render report %s: %v", id, err)
	}
}

// ExportResponse is the /api/session/export payload.
type ExportResponse struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
	Path      string `json:"path"`
}

// exportSessionReport handles GET /api/session/export - render a
// session report to a file on the server. The filename is anchored
// under the export directory; the response carries the path written.
func (s *Server) exportSessionReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "html" {
		httputil.BadRequest(w, "Invalid 'format' parameter (want png or html)")
		return
	}

	id, err := s.resolveSessionID(r)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			httputil.NotFound(w, "No sessions recorded")
			return
		}
		monitoring.Logf("api: resolve session: %v", err)
		httputil.InternalServerError(w, "Failed to resolve session")
		return
	}

	session, err := s.db.Session(id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			httputil.NotFound(w, fmt.Sprintf("Session %s not found", id))
			return
		}
		monitoring.Logf("api: fetch session %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to fetch session")
		return
	}

	fixes, err := s.db.Fixes(id)
	if err != nil {
		monitoring.Logf("api: fetch fixes %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to fetch fixes")
		return
	}
	alarms, err := s.db.Alarms(id)
	if err != nil {
		monitoring.Logf("api: fetch alarms %s: %v", id, err)
		httputil.InternalServerError(w, "Failed to fetch alarms")
		return
	}

	summary := report.Summarize(session, fixes, alarms)
	var path string
	switch format {
	case "png":
		path, err = report.ExportPNG(r.URL.Query().Get("file"), summary, fixes)
	case "html":
		path, err = report.ExportHTML(r.URL.Query().Get("file"), summary, fixes)
	}
	if err != nil {
		monitoring.Logf("api: export session %s: %v", id, err)
		httputil.BadRequest(w, fmt.Sprintf("Export failed: %v", err))
		return
	}

	monitoring.Logf("api: exported session %s report to %s", id, path)
	httputil.WriteJSONOK(w, ExportResponse{SessionID: id, Format: format, Path: path})
}

// listAlarms handles GET /api/alarms?limit=<n> - newest alarms across
// all sessions.
func (s *Server) listAlarms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	alarms, err := s.db.RecentAlarms(limit)
	if err != nil {
		monitoring.Logf("api: fetch alarms: %v", err)
		httputil.InternalServerError(w, "Failed to fetch alarms")
		return
	}
	httputil.WriteJSONOK(w, alarms)
}
