package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// formField is a plain multipart text field
type formField struct {
	name  string
	value string
}

// doJSON performs a request without body and unmarshals the JSON response into T.
// Non-2xx responses become *ServiceError, transport failures *NetworkError.
func doJSON[T any](ctx context.Context, c *Client, op, method string, requestBody any, segments ...string) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("%s: could not marshal request body: %w", op, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(segments...), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: could not create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return send[T](c, op, req, strings.Join(segments, "/"))
}

// doMultipart builds a multipart form with text fields and one image part and
// unmarshals the JSON response into T.
func doMultipart[T any](ctx context.Context, c *Client, op string, fields []formField, imageField string, img Image, segments ...string) (*T, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("%s: could not write field %s: %w", op, f.name, err)
		}
	}

	part, err := createImagePart(writer, imageField, img)
	if err != nil {
		return nil, fmt.Errorf("%s: could not create form file: %w", op, err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, fmt.Errorf("%s: could not copy image data: %w", op, err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%s: could not close writer: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(segments...), &body)
	if err != nil {
		return nil, fmt.Errorf("%s: could not create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return send[T](c, op, req, strings.Join(segments, "/"))
}

// createImagePart is multipart.Writer.CreateFormFile with the real content type
// instead of application/octet-stream.
func createImagePart(w *multipart.Writer, field string, img Image) (io.Writer, error) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := img.Filename
	if filename == "" {
		filename = "image"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

func send[T any](c *Client, op string, req *http.Request, endpoint string) (*T, error) {
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("could not read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}

	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("could not unmarshal response: %v", err)}
	}

	return &result, nil
}
