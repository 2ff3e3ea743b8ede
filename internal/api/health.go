package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bakitorunoglu/TrackRadar/internal/httputil"
)

// CheckHealth probes a running instance's status endpoint and returns
// its decoded status. Used by the healthcheck subcommand and deploy
// scripts.
func CheckHealth(client httputil.HTTPClient, baseURL string) (*StatusResponse, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/status"

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}
