package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/media"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Check an image for faces without enrolling anyone",
	Long: `Send an image to the face service and print what it found:
number of faces, confidence, pose and the service's recommendations.

Examples:
  # Check a photo
  face-enroll detect portrait.jpg

  # Print the raw detection result
  face-enroll detect --json portrait.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDetect(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, _, err := newFaceClient(cfg)
	if err != nil {
		return err
	}

	img, err := media.AcquireFromPath(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	outcome, err := client.DetectFace(cmd.Context(), faceapi.Image{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        img.SourceFile,
	})
	if err != nil {
		return fmt.Errorf("face detection failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	printDetection(img, outcome)
	return nil
}

func printDetection(img *media.ImageCapture, outcome *faceapi.DetectionOutcome) {
	fmt.Printf("Image: %s (%s, %d bytes)\n", img.Filename, img.ContentType, img.Size())
	if outcome.Message != "" {
		fmt.Printf("Service: %s\n", outcome.Message)
	}

	if !outcome.HasFace() {
		fmt.Println("No face detected.")
	} else {
		fmt.Printf("Faces detected: %d\n", outcome.FacesDetected)
		for i, face := range outcome.Faces {
			fmt.Printf("  #%d confidence %.1f%%  pose roll=%.1f yaw=%.1f pitch=%.1f",
				i+1, face.Confidence, face.Pose.Roll, face.Pose.Yaw, face.Pose.Pitch)
			if face.AgeRange.High > 0 {
				fmt.Printf("  age %d-%d", face.AgeRange.Low, face.AgeRange.High)
			}
			fmt.Println()
		}
	}

	if len(outcome.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		fmt.Printf("  - %s\n", strings.Join(outcome.Recommendations, "\n  - "))
	}
}
