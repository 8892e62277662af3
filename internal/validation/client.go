// Package validation is the caller side of the image validation contract:
// POST /api/image/validate with a single multipart field "image", answered by
// {"result": string, "blurPercentage": 0-100} on success.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/phambaophuc/image-validator/internal/models"
)

const (
	ValidatePath = "/api/image/validate"
	FieldName    = "image"

	defaultTimeout  = 30 * time.Second
	defaultFilename = "upload"
)

// ErrValidationFailed is the only error kind a caller sees. Transport failures,
// non-2xx statuses and malformed bodies all collapse into it.
var ErrValidationFailed = errors.New("validation request failed")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate uploads image and returns the service's verdict. It sends exactly one
// request and never retries.
func (c *Client) Validate(ctx context.Context, filename string, image []byte) (*models.ValidationResult, error) {
	body, contentType, err := encodeUpload(filename, image)
	if err != nil {
		return nil, failed(fmt.Errorf("failed to encode upload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ValidatePath, body)
	if err != nil {
		return nil, failed(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failed(fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, failed(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return decodeResult(resp.Body)
}

func decodeResult(r io.Reader) (*models.ValidationResult, error) {
	var payload struct {
		Result         *string  `json:"result"`
		BlurPercentage *float64 `json:"blurPercentage"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, failed(fmt.Errorf("failed to decode response: %w", err))
	}

	switch {
	case payload.Result == nil:
		return nil, failed(errors.New("response is missing result"))
	case payload.BlurPercentage == nil:
		return nil, failed(errors.New("response is missing blurPercentage"))
	case *payload.BlurPercentage < 0 || *payload.BlurPercentage > 100:
		return nil, failed(fmt.Errorf("blurPercentage %v out of range", *payload.BlurPercentage))
	}

	return &models.ValidationResult{
		Result:         *payload.Result,
		BlurPercentage: *payload.BlurPercentage,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeUpload(filename string, image []byte) (*bytes.Buffer, string, error) {
	if filename == "" {
		filename = defaultFilename
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldName, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", mimetype.Detect(image).String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func failed(cause error) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, cause)
}
