package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultSettingsPath is the path to the canonical settings defaults file.
// This is the single source of truth for all default values.
const DefaultSettingsPath = "config/trackradar.defaults.json"

// Settings is the root configuration for the alarm engine and its
// collaborators. The schema matches the /api/config endpoint so the
// same JSON can be used for both startup configuration and runtime
// updates.
type Settings struct {
	// Proximity params
	OnTrackThresholdMeters *float64 `json:"on_track_threshold_meters,omitempty"`
	GPSBaseErrorMeters     *float64 `json:"gps_base_error_meters,omitempty"`

	// Alarm cadence params (duration strings like "30s")
	MinOffTrackInterval    *string `json:"min_off_track_interval,omitempty"`
	NoSignalFirstTimeout   *string `json:"no_signal_first_timeout,omitempty"`
	NoSignalRepeatInterval *string `json:"no_signal_repeat_interval,omitempty"`

	// Alarm kind toggles
	OffTrackAlarmEnabled   *bool `json:"off_track_alarm_enabled,omitempty"`
	SignalLostAlarmEnabled *bool `json:"signal_lost_alarm_enabled,omitempty"`
	PositiveAckEnabled     *bool `json:"positive_ack_enabled,omitempty"`

	// Display params
	Units *string `json:"units,omitempty"` // "metric" or "imperial"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptySettings returns a Settings with all fields set to nil.
// Use LoadSettings to load actual values from a file.
func EmptySettings() *Settings {
	return &Settings{}
}

// LoadSettings loads Settings from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadSettings(path string) (*Settings, error) {
	// Validate the settings file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("settings file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("settings file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	// Parse JSON into empty settings. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	s := EmptySettings()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}

	// Validate the configuration
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return s, nil
}

// MustLoadDefaultSettings loads the canonical defaults from DefaultSettingsPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultSettings() *Settings {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultSettingsPath,
		"../../" + DefaultSettingsPath,    // from internal/config/
		"../../../" + DefaultSettingsPath, // from cmd/tools/ packages
	}
	for _, path := range candidates {
		if s, err := LoadSettings(path); err == nil {
			return s
		}
	}
	panic("cannot find " + DefaultSettingsPath + " - run tests from repository root")
}

// Validate checks that the settings values are valid.
func (s *Settings) Validate() error {
	if s.OnTrackThresholdMeters != nil && *s.OnTrackThresholdMeters <= 0 {
		return fmt.Errorf("on_track_threshold_meters must be positive, got %f", *s.OnTrackThresholdMeters)
	}
	if s.GPSBaseErrorMeters != nil && *s.GPSBaseErrorMeters < 0 {
		return fmt.Errorf("gps_base_error_meters must be non-negative, got %f", *s.GPSBaseErrorMeters)
	}

	for _, field := range []struct {
		name  string
		value *string
	}{
		{"min_off_track_interval", s.MinOffTrackInterval},
		{"no_signal_first_timeout", s.NoSignalFirstTimeout},
		{"no_signal_repeat_interval", s.NoSignalRepeatInterval},
	} {
		if field.value == nil || *field.value == "" {
			continue
		}
		d, err := time.ParseDuration(*field.value)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", field.name, *field.value, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", field.name, d)
		}
	}

	if s.Units != nil && *s.Units != "" && *s.Units != "metric" && *s.Units != "imperial" {
		return fmt.Errorf("units must be \"metric\" or \"imperial\", got %q", *s.Units)
	}

	return nil
}

// Merge returns a copy of s with every non-nil field of patch applied.
func (s *Settings) Merge(patch *Settings) *Settings {
	out := *s
	if patch == nil {
		return &out
	}
	if patch.OnTrackThresholdMeters != nil {
		out.OnTrackThresholdMeters = patch.OnTrackThresholdMeters
	}
	if patch.GPSBaseErrorMeters != nil {
		out.GPSBaseErrorMeters = patch.GPSBaseErrorMeters
	}
	if patch.MinOffTrackInterval != nil {
		out.MinOffTrackInterval = patch.MinOffTrackInterval
	}
	if patch.NoSignalFirstTimeout != nil {
		out.NoSignalFirstTimeout = patch.NoSignalFirstTimeout
	}
	if patch.NoSignalRepeatInterval != nil {
		out.NoSignalRepeatInterval = patch.NoSignalRepeatInterval
	}
	if patch.OffTrackAlarmEnabled != nil {
		out.OffTrackAlarmEnabled = patch.OffTrackAlarmEnabled
	}
	if patch.SignalLostAlarmEnabled != nil {
		out.SignalLostAlarmEnabled = patch.SignalLostAlarmEnabled
	}
	if patch.PositiveAckEnabled != nil {
		out.PositiveAckEnabled = patch.PositiveAckEnabled
	}
	if patch.Units != nil {
		out.Units = patch.Units
	}
	return &out
}

// GetOnTrackThresholdMeters returns the on_track_threshold_meters value or the default.
func (s *Settings) GetOnTrackThresholdMeters() float64 {
	if s.OnTrackThresholdMeters == nil {
		return 25.0 // default
	}
	return *s.OnTrackThresholdMeters
}

// GetGPSBaseErrorMeters returns the gps_base_error_meters value or the default.
// The fix source multiplies this by the reported HDOP to estimate
// horizontal accuracy.
func (s *Settings) GetGPSBaseErrorMeters() float64 {
	if s.GPSBaseErrorMeters == nil {
		return 5.0 // default
	}
	return *s.GPSBaseErrorMeters
}

// GetMinOffTrackInterval parses and returns the MinOffTrackInterval as a time.Duration.
func (s *Settings) GetMinOffTrackInterval() time.Duration {
	return durationOrDefault(s.MinOffTrackInterval, 30*time.Second)
}

// GetNoSignalFirstTimeout parses and returns the NoSignalFirstTimeout as a time.Duration.
func (s *Settings) GetNoSignalFirstTimeout() time.Duration {
	return durationOrDefault(s.NoSignalFirstTimeout, 60*time.Second)
}

// GetNoSignalRepeatInterval parses and returns the NoSignalRepeatInterval as a time.Duration.
func (s *Settings) GetNoSignalRepeatInterval() time.Duration {
	return durationOrDefault(s.NoSignalRepeatInterval, 60*time.Second)
}

func durationOrDefault(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetOffTrackAlarmEnabled returns the off_track_alarm_enabled value or the default.
func (s *Settings) GetOffTrackAlarmEnabled() bool {
	if s.OffTrackAlarmEnabled == nil {
		return true // default
	}
	return *s.OffTrackAlarmEnabled
}

// GetSignalLostAlarmEnabled returns the signal_lost_alarm_enabled value or the default.
func (s *Settings) GetSignalLostAlarmEnabled() bool {
	if s.SignalLostAlarmEnabled == nil {
		return true // default
	}
	return *s.SignalLostAlarmEnabled
}

// GetPositiveAckEnabled returns the positive_ack_enabled value or the default.
func (s *Settings) GetPositiveAckEnabled() bool {
	if s.PositiveAckEnabled == nil {
		return true // default
	}
	return *s.PositiveAckEnabled
}

// GetUnits returns the units value or the default.
func (s *Settings) GetUnits() string {
	if s.Units == nil || *s.Units == "" {
		return "metric" // default
	}
	return *s.Units
}
