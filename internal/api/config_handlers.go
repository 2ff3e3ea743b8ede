package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bakitorunoglu/TrackRadar/internal/config"
	"github.com/bakitorunoglu/TrackRadar/internal/httputil"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
)

// handleConfig handles GET and PATCH on /api/config. GET returns the
// live settings; PATCH merges the non-null fields of the body into
// them. The engine picks updates up on its next decision.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.store.Current())
	case http.MethodPatch:
		s.patchConfig(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) patchConfig(w http.ResponseWriter, r *http.Request) {
	var patch config.Settings
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.BadRequest(w, "Invalid request body")
		return
	}

	updated, err := s.store.Patch(&patch)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid settings: %v", err))
		return
	}

	monitoring.Logf("api: config updated")
	httputil.WriteJSONOK(w, updated)
}
