package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/logging"
)

var (
	captureDir string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "face-enroll",
	Short: "A CLI client for enrolling people into a face recognition service",
	Long: `Face Enroll is a client for a remote face recognition service.
It acquires a photo from a file or a network camera, checks it for a face,
collects identity details (CCCD number, name, gender, birth date, address)
and enrolls the person. It can also list and manage enrolled users and serve
the enrollment workflow to a local browser page.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadRuntime loads the configuration and builds the logger every command shares.
// Configuration warnings are logged once the logger exists.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()

	level := logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	logger, err := logging.NewLogger(level, logging.WithFile(cfg.Log.File))
	if err != nil {
		return nil, nil, err
	}
	for _, warning := range cfg.Warnings {
		logger.Warn("configuration", zap.String("warning", warning))
	}
	return cfg, logger, nil
}

// newFaceClient connects the backend client with the selected form profile.
func newFaceClient(cfg *config.Config) (*faceapi.Client, config.Profile, error) {
	profile, err := cfg.Profile()
	if err != nil {
		return nil, config.Profile{}, err
	}
	client, err := faceapi.New(cfg.API.BaseURL,
		faceapi.WithTimeout(cfg.API.Timeout),
		faceapi.WithProfile(profile),
		faceapi.WithCaptureDir(captureDir),
	)
	if err != nil {
		return nil, config.Profile{}, fmt.Errorf("failed to create face API client: %w", err)
	}
	return client, profile, nil
}
