package faceapi

import (
	"context"
	"errors"
)

// DetectFace submits an image to POST /api/detect-faces.
// A response with no faces is a valid outcome, not an error.
func (c *Client) DetectFace(ctx context.Context, img Image) (*DetectionOutcome, error) {
	if len(img.Data) == 0 {
		return nil, errors.New("detect: image is empty")
	}
	outcome, err := doMultipart[DetectionOutcome](ctx, c, "detect", nil, "image", img, "api", "detect-faces")
	if err != nil {
		return nil, err
	}
	if outcome.FacesDetected < 0 {
		outcome.FacesDetected = 0
	}
	return outcome, nil
}
