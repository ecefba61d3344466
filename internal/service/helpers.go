package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

func GetExpiresAt(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}

// NewHTTPClient returns the client shared by every driver. Timeout bounds each call.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// readBody drains resp and fails on a non-2xx status, keeping the body for diagnosis.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, resp.StatusCode, body)
	}
	return body, nil
}

// callWithRefresh runs call, and when its error is retryable refreshes the
// credentials once and runs call again.
func callWithRefresh[T any](call func() (T, error), retryable func(error) bool, refresh func() error) (T, error) {
	res, err := call()
	if err == nil || !retryable(err) {
		return res, err
	}

	if rerr := refresh(); rerr != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrTokenRefresh, rerr)
	}

	return call()
}

// pollUntil calls check up to attempts times (at least once), waiting interval between calls.
// check returns done=true on a success state and an error on a failure state.
func pollUntil(ctx context.Context, interval time.Duration, attempts int, check func(ctx context.Context) (bool, error)) error {
	attempts = max(attempts, 1)
	for i := 0; i < attempts; i++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrProcessingTimeout
}
