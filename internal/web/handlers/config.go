package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/enrollment"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config  *config.Config
	profile config.Profile
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, profile config.Profile) *ConfigHandler {
	return &ConfigHandler{
		config:  cfg,
		profile: profile,
	}
}

// ConfigResponse is what the browser page needs to render the forms
type ConfigResponse struct {
	APIBaseURL      string   `json:"api_base_url"`
	Profile         string   `json:"profile"`
	LegacyProfile   bool     `json:"legacy_profile"`
	Fields          []string `json:"fields"`
	Genders         []string `json:"genders"`
	CameraAvailable bool     `json:"camera_available"`
	MaxFileSize     int64    `json:"max_file_size"`
	AdvanceDelayMs  int64    `json:"advance_delay_ms"`
}

// Get returns the client configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	fields := make([]string, len(enrollment.Fields))
	for i, f := range enrollment.Fields {
		fields[i] = string(f)
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		APIBaseURL:      h.config.API.BaseURL,
		Profile:         h.profile.Name,
		LegacyProfile:   h.profile.Legacy,
		Fields:          fields,
		Genders:         enrollment.Genders,
		CameraAvailable: h.config.Camera.SnapshotURL != "",
		MaxFileSize:     constants.MaxImageFileSize,
		AdvanceDelayMs:  h.config.Enrollment.AdvanceDelay.Milliseconds(),
	})
}
