package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/enrollment"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/media"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a person with a photo and identity details",
	Long: `Run one enrollment: acquire a photo, check it for a face, validate the
identity details and submit everything to the face service.

The photo comes either from a file (--image) or from a network camera that
serves JPEG snapshots (--camera-url). When no face is detected the enrollment
stops unless --force is given.

Examples:
  # Enroll from a file
  face-enroll enroll --image portrait.jpg --id 001234567890 \
    --name "Nguyen Van A" --gender male --birth-date 1990-05-17 \
    --address "12 Ly Thuong Kiet, Ha Noi"

  # Enroll from a network camera
  face-enroll enroll --camera-url http://10.0.0.5/snapshot.jpg --id 001234567890 ...`,
	Args: cobra.NoArgs,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("image", "", "Path to the photo to enroll")
	enrollCmd.Flags().String("camera-url", "", "Snapshot URL of a network camera to capture the photo from")
	addDraftFlags(enrollCmd)
	enrollCmd.Flags().Bool("force", false, "Enroll even when no face was detected")
	enrollCmd.MarkFlagsMutuallyExclusive("image", "camera-url")
	enrollCmd.MarkFlagsOneRequired("image", "camera-url")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	imagePath := mustGetString(cmd, "image")
	cameraURL := mustGetString(cmd, "camera-url")
	force := mustGetBool(cmd, "force")

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, profile, err := newFaceClient(cfg)
	if err != nil {
		return err
	}
	logger.Debug("enrolling", zap.String("profile", profile.Name), zap.String("api", cfg.API.BaseURL))

	var device media.Device
	if cameraURL != "" {
		device = media.NewSnapshotDevice(cameraURL, nil)
	}
	acq := media.NewAcquirer(device,
		media.WithReadyTimeout(cfg.Camera.ReadyTimeout),
		media.WithLogger(logger),
	)
	wf := enrollment.New(client, acq, enrollment.Options{Logger: logger})
	defer wf.Close()

	ctx := cmd.Context()

	// Step 1: acquire and check the photo
	if imagePath != "" {
		if _, err := wf.UploadPath(imagePath); err != nil {
			return fmt.Errorf("image rejected: %s", media.Message(err))
		}
	} else {
		fmt.Printf("Opening camera %s...\n", cameraURL)
		if err := wf.OpenCamera(ctx); err != nil {
			return fmt.Errorf("camera unavailable: %s", media.Message(err))
		}
		if _, err := wf.Capture(ctx); err != nil {
			return fmt.Errorf("capture failed: %s", media.Message(err))
		}
	}

	fmt.Println("Detecting face...")
	outcome, err := wf.Detect(ctx)
	switch {
	case err != nil && !force:
		return fmt.Errorf("face detection failed (use --force to enroll anyway): %w", err)
	case err != nil:
		fmt.Printf("Warning: face detection failed: %v\n", err)
	case outcome.HasFace():
		fmt.Printf("Face detected (%.1f%% confidence)\n", outcome.TopConfidence())
	case !force:
		printRecommendations(outcome)
		return errors.New("no face detected in the photo (use --force to enroll anyway)")
	default:
		fmt.Println("Warning: no face detected, continuing because of --force")
	}

	if wf.Stage() == enrollment.StageAcquireImage {
		if err := wf.ContinueAnyway(); err != nil {
			return err
		}
	}

	// Step 2: identity details
	values := mustGetDraft(cmd)
	for _, f := range enrollment.Fields {
		if err := wf.SetField(f, values[f]); err != nil {
			return err
		}
	}

	// Step 3: submit
	fmt.Println("Submitting enrollment...")
	conf, err := wf.Submit(ctx)
	if err != nil {
		var verr *enrollment.ValidationError
		if errors.As(err, &verr) {
			printFieldErrors(verr.Fields)
		}
		return fmt.Errorf("enrollment failed: %w", err)
	}

	printConfirmation(conf)
	return nil
}

func printRecommendations(outcome *faceapi.DetectionOutcome) {
	if outcome == nil {
		return
	}
	if outcome.Message != "" {
		fmt.Printf("Service: %s\n", outcome.Message)
	}
	for _, r := range outcome.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
}

func printFieldErrors(errs enrollment.FieldErrors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	slices.Sort(fields)
	fmt.Println("Invalid details:")
	for _, f := range fields {
		fmt.Printf("  %-12s %s\n", f, errs[enrollment.Field(f)])
	}
}

func printConfirmation(conf *enrollment.Confirmation) {
	fmt.Println("\nEnrollment completed")
	if conf.Result.Message != "" {
		fmt.Printf("  %s\n", conf.Result.Message)
	}
	fmt.Printf("  User ID:    %d\n", conf.Result.UserID)
	if conf.Result.FaceID != "" {
		fmt.Printf("  Face ID:    %s\n", conf.Result.FaceID)
	}
	fmt.Printf("  CCCD:       %s\n", conf.Details.IDNumber)
	fmt.Printf("  Name:       %s\n", conf.Details.FullName)
	fmt.Printf("  Gender:     %s\n", conf.Details.Gender)
	fmt.Printf("  Birth date: %s\n", conf.Details.BirthDate)
	fmt.Printf("  Address:    %s\n", conf.Details.Address)
	fmt.Printf("  Submitted:  %s\n", conf.SubmittedAt.Format("2006-01-02 15:04:05"))
}
