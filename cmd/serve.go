package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/enrollment"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/media"
	"github.com/kozaktomas/face-enroll/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	Long: `Start the Face Enroll web server.
The server exposes the enrollment workflow as JSON endpoints for a browser
page: one workflow per browser session, image upload or network camera
capture, face detection, identity details and submission, plus the enrolled
user directory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags and the environment.
// Explicit flags win over WEB_HOST and WEB_PORT.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret != "" {
		cfg.Web.SessionSecret = sessionSecret
	}
	if !cmd.Flags().Changed("port") && cfg.Web.Port > 0 {
		port = cfg.Web.Port
	}
	if !cmd.Flags().Changed("host") && cfg.Web.Host != "" {
		host = cfg.Web.Host
	}
	return port, host
}

// workflowFactory builds one workflow per browser session. All of them share
// the backend client and the enrollment registry.
func workflowFactory(cfg *config.Config, client *faceapi.Client, registry *enrollment.Registry, logger *zap.Logger) func() *enrollment.Workflow {
	return func() *enrollment.Workflow {
		var device media.Device
		if cfg.Camera.SnapshotURL != "" {
			device = media.NewSnapshotDevice(cfg.Camera.SnapshotURL, nil)
		}
		acq := media.NewAcquirer(device,
			media.WithReadyTimeout(cfg.Camera.ReadyTimeout),
			media.WithLogger(logger),
		)
		return enrollment.New(client, acq, enrollment.Options{
			AdvanceDelay: cfg.Enrollment.AdvanceDelay,
			Registry:     registry,
			Logger:       logger,
		})
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, profile, err := newFaceClient(cfg)
	if err != nil {
		return err
	}

	port, host := resolveServeHostPort(cmd, cfg)
	registry := enrollment.NewRegistry()

	server := web.NewServer(cfg, web.Dependencies{
		Profile:     profile,
		Users:       client,
		Registry:    registry,
		NewWorkflow: workflowFactory(cfg, client, registry, logger),
		Logger:      logger,
	}, host, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Face service: %s (form profile %s)\n", cfg.API.BaseURL, profile.Name)
	if cfg.Camera.SnapshotURL != "" {
		fmt.Printf("Network camera: %s\n", cfg.Camera.SnapshotURL)
	} else {
		fmt.Println("Network camera: disabled (set CAMERA_SNAPSHOT_URL to enable)")
	}
	fmt.Printf("Starting Face Enroll on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	// cameras are released by Shutdown after the listener closes
	<-shutdownDone
	return nil
}
