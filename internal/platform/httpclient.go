package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/student-dashboard/internal/apperror"
)

// maxBody caps how much of an upstream response we are willing to read.
// Codeforces user.status for a prolific user is a few MB.
const maxBody = 32 << 20

// StatusError is a non-2xx upstream response. Body holds at most the first
// few KB so adapters can inspect platform-specific error payloads.
type StatusError struct {
	Code       int
	Body       []byte
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPClient is the JSON client every adapter shares. Per-call deadlines come
// from the context, so the underlying http.Client has no global timeout.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient wraps c (http.DefaultClient when nil).
func NewHTTPClient(c *http.Client, userAgent string) *HTTPClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPClient{client: c, userAgent: userAgent}
}

// GetJSON decodes the JSON body of a GET into out.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, headers, out)
}

// PostJSON encodes body as JSON, POSTs it, and decodes the response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers, out)
}

func (c *HTTPClient) do(req *http.Request, headers map[string]string, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{
			Code:       resp.StatusCode,
			Body:       snippet,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Classify converts a transport or status error into the adapter taxonomy.
// Adapters call it for every error they do not handle themselves.
func Classify(platform, handle string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusNotFound:
			return UserNotFound(platform, handle)
		case statusErr.Code == http.StatusTooManyRequests:
			return apperror.RateLimited(platform, statusErr.RetryAfter)
		default:
			return apperror.Upstream(platform, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Upstream(platform, errors.New("request timed out"))
	}
	if errors.Is(err, context.Canceled) {
		return apperror.Upstream(platform, errors.New("request cancelled"))
	}
	return apperror.Upstream(platform, err)
}

// UserNotFound is the NotFound error every adapter reports for unknown handles.
func UserNotFound(platform, handle string) error {
	return apperror.NotFoundMessage(fmt.Sprintf("%s user %q not found", platform, handle))
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
