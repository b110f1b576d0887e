package landmarks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/internal/httpc"
	"github.com/teslashibe/go-proctor/pkg/gaze"
)

// Extractor returns the landmarks of every face in a frame.
type Extractor interface {
	Extract(ctx context.Context, img gocv.Mat) ([]gaze.Landmarks, error)
}

// Client talks to the face-mesh sidecar.
type Client struct {
	baseURL string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new sidecar client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid landmark sidecar url %q", cfg.BaseURL)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		config:  cfg,
		http:    httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "landmarks.client"),
	}, nil
}

// meshResponse is the sidecar reply. Points are [x, y, z] normalized to
// the frame size; z is unused.
type meshResponse struct {
	Faces []struct {
		Landmarks [][]float64 `json:"landmarks"`
	} `json:"faces"`
}

// Extract encodes img as JPEG and returns the landmarks of each face.
func (c *Client) Extract(ctx context.Context, img gocv.Mat) ([]gaze.Landmarks, error) {
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), c.config.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return c.ExtractJPEG(ctx, buf.GetBytes())
}

// ExtractJPEG posts an encoded frame and returns the landmarks of each face.
func (c *Client) ExtractJPEG(ctx context.Context, jpeg []byte) ([]gaze.Landmarks, error) {
	if len(jpeg) == 0 {
		return nil, ErrEmptyFrame
	}

	q := url.Values{}
	q.Set("max_faces", strconv.Itoa(c.config.MaxFaces))
	q.Set("refine", strconv.FormatBool(c.config.Refine))
	q.Set("min_confidence", strconv.FormatFloat(c.config.MinConfidence, 'f', -1, 64))

	resp, err := c.post(ctx, "/v1/face_mesh?"+q.Encode(), jpeg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result meshResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode landmarks: %w", err)
	}

	faces := make([]gaze.Landmarks, 0, len(result.Faces))
	for _, f := range result.Faces {
		lm := make(gaze.Landmarks, 0, len(f.Landmarks))
		for _, p := range f.Landmarks {
			if len(p) < 2 {
				return nil, fmt.Errorf("decode landmarks: point with %d coordinates", len(p))
			}
			lm = append(lm, gaze.Landmark{X: p[0], Y: p[1]})
		}
		faces = append(faces, lm)
	}

	return faces, nil
}

// Health checks that the sidecar is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("landmark sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	return c.doWithRetry(ctx, req, body)
}

// doWithRetry performs the request with retry logic.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			// Reset body for retry
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("landmark request: %w", err)
			c.logger.Debug("request failed", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = c.parseError(resp)
			resp.Body.Close()
			c.logger.Debug("retrying request", "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error string `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// IsAPIError reports whether err is a sidecar error response.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

var _ Extractor = (*Client)(nil)
