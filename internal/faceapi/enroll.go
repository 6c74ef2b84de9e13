package faceapi

import (
	"context"
	"errors"
	"net/http"
)

const enrollFailedMessage = "Enrollment failed"

// EnrollUser submits identity fields and the image to POST /api/enroll.
// Field names follow the configured profile.
func (c *Client) EnrollUser(ctx context.Context, fields EnrollFields, img Image) (*EnrollmentResult, error) {
	if len(img.Data) == 0 {
		return nil, errors.New("enroll: image is required")
	}

	form := []formField{
		{c.fields.IDNumber, fields.IDNumber},
		{c.fields.FullName, fields.FullName},
		{c.fields.Gender, fields.Gender},
		{c.fields.BirthDate, fields.BirthDate},
		{c.fields.Address, fields.Address},
	}

	result, err := doMultipart[EnrollmentResult](ctx, c, "enroll", form, c.fields.Image, img, "api", "enroll")
	if err != nil {
		return nil, err
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = enrollFailedMessage
		}
		return nil, &ServiceError{Op: "enroll", StatusCode: http.StatusOK, Message: msg}
	}

	result.SubmittedAt = c.now()
	return result, nil
}
