package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bft-labs/canvasship/pkg/log"
)

const (
	// DefaultUploadPath is the recognition endpoint path.
	DefaultUploadPath = "/ocr"

	// DefaultMaxResponseBytes bounds how much of a response body is kept.
	DefaultMaxResponseBytes = 1 << 20

	imageField    = "image"
	imageFilename = "canvas.png"
	imageType     = "image/png"
)

// ImageUploader posts an encoded image and reports the outcome.
type ImageUploader interface {
	Upload(ctx context.Context, img []byte) Result
}

// UploaderConfig configures an Uploader.
type UploaderConfig struct {
	// ServiceURL is the base URL of the recognition service
	ServiceURL string

	// Path is appended to ServiceURL. Default: /ocr
	Path string

	// MaxResponseBytes bounds the kept response body. Default: 1 MiB
	MaxResponseBytes int64
}

// Endpoint returns the full upload URL.
func (c UploaderConfig) Endpoint() string {
	path := c.Path
	if path == "" {
		path = DefaultUploadPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.ServiceURL, "/") + path
}

// Uploader implements ImageUploader with a single multipart POST and no retry.
type Uploader struct {
	client HTTPClient
	cfg    UploaderConfig
	logger log.Logger
}

// NewUploader creates a new Uploader.
func NewUploader(client HTTPClient, cfg UploaderConfig, logger log.Logger) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	return &Uploader{
		client: client,
		cfg:    cfg,
		logger: log.OrNoop(logger),
	}
}

// Upload posts img as the single "image" part of a multipart form.
// Only HTTP 200 counts as success.
func (u *Uploader) Upload(ctx context.Context, img []byte) Result {
	res := Result{ImageBytes: len(img)}

	body, contentType, err := buildForm(img)
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrUploadFailure, err)
		return res
	}

	url := u.cfg.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		res.Err = fmt.Errorf("%w: create request: %w", ErrUploadFailure, err)
		return res
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("%w: send request: %w", ErrUploadFailure, err)
		u.logger.Warn("upload failed", log.String("url", url), log.Err(err))
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.Body, err = io.ReadAll(io.LimitReader(resp.Body, u.cfg.MaxResponseBytes))
	if err != nil {
		res.BodyErr = fmt.Errorf("read response body: %w", err)
		u.logger.Warn("response body incomplete",
			log.String("url", url),
			log.Int("status", resp.StatusCode),
			log.Int("body_bytes", len(res.Body)),
			log.Err(err),
		)
	}

	fields := []log.Field{
		log.String("url", url),
		log.Int("status", resp.StatusCode),
		log.Int("image_bytes", len(img)),
	}
	if utf8.Valid(res.Body) {
		fields = append(fields, log.String("body", string(res.Body)))
	} else {
		fields = append(fields, log.Int("body_bytes", len(res.Body)))
	}

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("%w: server returned %d", ErrUploadFailure, resp.StatusCode)
		u.logger.Warn("upload rejected", fields...)
		return res
	}

	res.Success = true
	u.logger.Info("upload complete", fields...)
	return res
}

func buildForm(img []byte) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.SetBoundary("Boundary-" + uuid.NewString()); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageField, imageFilename))
	h.Set("Content-Type", imageType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
