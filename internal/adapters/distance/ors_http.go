package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	maxAttempts    = 4
	defaultBackoff = 200 * time.Millisecond
)

// statusError is a non-2xx ORS answer. RetryAfter is set from the
// Retry-After header of a rate-limited response.
type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ORS status %d: %s", e.Code, e.Body)
}

func (e *statusError) temporary() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// call sends one ORS request and decodes the JSON answer into out. A nil
// payload sends no body. Temporary failures are retried with doubling
// backoff until maxAttempts or ctx is done.
func (o *ORSMatrixSource) call(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = b
	}

	endpoint := o.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	wait := o.backoff
	if wait <= 0 {
		wait = defaultBackoff
	}

	for attempt := 1; ; attempt++ {
		err := o.send(ctx, method, endpoint, body, out)
		if err == nil || attempt == maxAttempts || !retryable(err) {
			return err
		}

		pause := wait
		var se *statusError
		if errors.As(err, &se) && se.RetryAfter > pause {
			pause = se.RetryAfter
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}

func (o *ORSMatrixSource) send(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		se := &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			se.RetryAfter = time.Duration(secs) * time.Second
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
