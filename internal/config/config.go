package config

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

//go:embed profiles.yaml
var profilesYAML []byte

type Config struct {
	API        APIConfig
	Camera     CameraConfig
	Web        WebConfig
	Log        LogConfig
	Enrollment EnrollmentConfig
	Profiles   ProfilesConfig

	// Warnings collects non-fatal configuration problems found by Load.
	// They are logged once the logger is available.
	Warnings []string
}

type APIConfig struct {
	BaseURL string // defaults to constants.DefaultAPIBaseURL
	Timeout time.Duration
}

type CameraConfig struct {
	SnapshotURL  string // network camera JPEG snapshot endpoint, empty disables camera mode
	ReadyTimeout time.Duration
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
	SessionSecret  string   // signs session cookies, random per process when empty
}

type LogConfig struct {
	Level string
	File  string // rotated JSON log file, empty logs to stderr only
}

type EnrollmentConfig struct {
	AdvanceDelay time.Duration
	Profile      string // form profile name from profiles.yaml, empty selects the default
}

type ProfilesConfig struct {
	Default  string             `yaml:"default"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile maps the draft fields onto the multipart field names the backend expects.
type Profile struct {
	Name        string        `yaml:"-"`
	Description string        `yaml:"description"`
	Legacy      bool          `yaml:"legacy"`
	Fields      ProfileFields `yaml:"fields"`
}

type ProfileFields struct {
	IDNumber  string `yaml:"id_number"`
	FullName  string `yaml:"full_name"`
	Gender    string `yaml:"gender"`
	BirthDate string `yaml:"birth_date"`
	Address   string `yaml:"address"`
	Image     string `yaml:"image"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration ("750ms", "2s").
// Negative values are allowed and mean "disabled" for the caller.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping blank entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var profiles ProfilesConfig
	if err := yaml.Unmarshal(profilesYAML, &profiles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded profiles.yaml: " + err.Error())
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(os.Getenv("FACE_API_BASE_URL"), "/"),
			Timeout: envDuration("FACE_API_TIMEOUT", constants.DefaultHTTPTimeout),
		},
		Camera: CameraConfig{
			SnapshotURL:  os.Getenv("CAMERA_SNAPSHOT_URL"),
			ReadyTimeout: envDuration("CAMERA_READY_TIMEOUT", constants.CameraReadyTimeout),
		},
		Web: WebConfig{
			Host:           os.Getenv("WEB_HOST"),
			Port:           envInt("WEB_PORT", 0),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
		},
		Log: LogConfig{
			Level: os.Getenv("LOG_LEVEL"),
			File:  os.Getenv("LOG_FILE"),
		},
		Enrollment: EnrollmentConfig{
			AdvanceDelay: envDuration("ENROLL_ADVANCE_DELAY", constants.DefaultAdvanceDelay),
			Profile:      os.Getenv("FACE_FORM_PROFILE"),
		},
		Profiles: profiles,
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = constants.DefaultAPIBaseURL
		cfg.Warnings = append(cfg.Warnings,
			"FACE_API_BASE_URL is not set, using default "+constants.DefaultAPIBaseURL)
	}

	return cfg
}

// Profile returns the configured form profile, falling back to the default one.
func (c *Config) Profile() (Profile, error) {
	name := c.Enrollment.Profile
	if name == "" {
		name = c.Profiles.Default
	}
	p, ok := c.Profiles.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown form profile %q (available: %s)",
			name, strings.Join(c.ProfileNames(), ", "))
	}
	p.Name = name
	return p, nil
}

// ProfileNames lists the available form profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles.Profiles))
	for name := range c.Profiles.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultProfile returns the canonical CCCD profile without reading the environment.
// Useful for callers that build an API client outside of the CLI.
func DefaultProfile() Profile {
	return Profile{
		Name: "cccd",
		Fields: ProfileFields{
			IDNumber:  "cccd_number",
			FullName:  "full_name",
			Gender:    "gender",
			BirthDate: "birth_date",
			Address:   "permanent_address",
			Image:     "image",
		},
	}
}
