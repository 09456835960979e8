package validate

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPClient is an interface matching the Do method of *http.Client.
// This allows injection of mock clients for testing and custom transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TimeoutHTTPClient bounds every request, body read included, with a timeout.
type TimeoutHTTPClient struct {
	underlying HTTPClient
	timeout    time.Duration
}

// NewTimeoutHTTPClient creates an HTTP client with the specified timeout.
// A nil underlying client uses http.DefaultClient.
func NewTimeoutHTTPClient(underlying HTTPClient, timeout time.Duration) *TimeoutHTTPClient {
	if underlying == nil {
		underlying = http.DefaultClient
	}
	return &TimeoutHTTPClient{
		underlying: underlying,
		timeout:    timeout,
	}
}

// Do executes an HTTP request with the configured timeout. The timeout is
// released when the response body is closed.
func (timeoutClient *TimeoutHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if timeoutClient.timeout <= 0 {
		return timeoutClient.underlying.Do(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeoutClient.timeout)
	response, err := timeoutClient.underlying.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	response.Body = &cancelOnClose{ReadCloser: response.Body, cancel: cancel}
	return response, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (body *cancelOnClose) Close() error {
	err := body.ReadCloser.Close()
	body.cancel()
	return err
}
