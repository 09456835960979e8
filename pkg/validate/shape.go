package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/coolbeans/taxo2rdf/pkg/store"
)

// DefaultConformsKey is the response field holding the conformance flag.
const DefaultConformsKey = "sh:conforms"

// maxBodyExcerpt bounds how much of a validator response is kept in reports.
const maxBodyExcerpt = 2000

// ShapeValidation is the outcome of submitting a graph to a shape validator.
type ShapeValidation struct {
	Endpoint       string `json:"endpoint"`
	ContentSyntax  string `json:"content_syntax"`
	ValidationType string `json:"validation_type"`
	Attempts       int    `json:"attempts"`
	StatusCode     int    `json:"status_code,omitempty"`
	// Reachable is true when the endpoint answered with 200 and a JSON body.
	Reachable bool   `json:"reachable"`
	Conforms  bool   `json:"conforms"`
	Error     string `json:"error,omitempty"`
	// Body is an excerpt of the response, kept when the graph does not conform
	// or the response could not be used.
	Body string `json:"body,omitempty"`
}

// shapeRequest is the payload the validation service expects.
type shapeRequest struct {
	ContentToValidate string `json:"contentToValidate"`
	ContentSyntax     string `json:"contentSyntax"`
	ValidationType    string `json:"validationType"`
}

// ShapeValidator posts serialized graphs to a shape validation service.
type ShapeValidator struct {
	endpoint        string
	validationType  string
	conformsKey     string
	client          HTTPClient
	timeout         time.Duration
	maxRetries      int
	initialInterval time.Duration
	logger          *slog.Logger
}

// ShapeOption configures a ShapeValidator.
type ShapeOption func(*ShapeValidator)

// WithHTTPClient replaces the HTTP client. The timeout still applies.
func WithHTTPClient(client HTTPClient) ShapeOption {
	return func(validator *ShapeValidator) {
		validator.client = client
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) ShapeOption {
	return func(validator *ShapeValidator) {
		validator.timeout = timeout
	}
}

// WithRetries sets how many times a failed request is retried and the first
// backoff interval.
func WithRetries(maxRetries int, initialInterval time.Duration) ShapeOption {
	return func(validator *ShapeValidator) {
		validator.maxRetries = maxRetries
		if initialInterval > 0 {
			validator.initialInterval = initialInterval
		}
	}
}

// WithConformsKey changes the response field read as the conformance flag.
func WithConformsKey(key string) ShapeOption {
	return func(validator *ShapeValidator) {
		if key != "" {
			validator.conformsKey = key
		}
	}
}

// WithShapeLogger sets the logger.
func WithShapeLogger(logger *slog.Logger) ShapeOption {
	return func(validator *ShapeValidator) {
		if logger != nil {
			validator.logger = logger
		}
	}
}

// NewShapeValidator creates a validator for endpoint. validationType is sent
// as the validationType field, e.g. "v1.0.0".
func NewShapeValidator(endpoint, validationType string, options ...ShapeOption) *ShapeValidator {
	validator := &ShapeValidator{
		endpoint:        endpoint,
		validationType:  validationType,
		conformsKey:     DefaultConformsKey,
		timeout:         30 * time.Second,
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		logger:          slog.Default(),
	}
	for _, option := range options {
		option(validator)
	}
	validator.client = NewTimeoutHTTPClient(validator.client, validator.timeout)
	return validator
}

// retryableStatusError marks 5xx answers, which are worth another attempt.
type retryableStatusError struct {
	StatusCode int
	Body       string
}

func (err *retryableStatusError) Error() string {
	return fmt.Sprintf("validator returned HTTP %d", err.StatusCode)
}

// Validate submits content. Transport failures and 5xx answers are retried
// with exponential backoff; every failure ends up in the returned outcome
// rather than as an error.
func (validator *ShapeValidator) Validate(ctx context.Context, content string, format store.Format) *ShapeValidation {
	outcome := &ShapeValidation{
		Endpoint:       validator.endpoint,
		ContentSyntax:  format.MediaType(),
		ValidationType: validator.validationType,
	}

	payload, err := json.Marshal(shapeRequest{
		ContentToValidate: content,
		ContentSyntax:     outcome.ContentSyntax,
		ValidationType:    validator.validationType,
	})
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to encode request: %v", err)
		return outcome
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = validator.initialInterval
	retries := validator.maxRetries
	if retries < 0 {
		retries = 0
	}

	var body []byte
	operation := func() error {
		outcome.Attempts++
		statusCode, responseBody, err := validator.post(ctx, payload)
		outcome.StatusCode = statusCode
		body = responseBody
		if err != nil {
			validator.logger.Warn("shape validation attempt failed",
				slog.Int("attempt", outcome.Attempts),
				slog.Any("error", err))
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))
	if err != nil {
		var statusErr *retryableStatusError
		if errors.As(err, &statusErr) {
			outcome.Body = excerpt(statusErr.Body)
		}
		outcome.Error = err.Error()
		return outcome
	}

	if outcome.StatusCode != http.StatusOK {
		outcome.Error = fmt.Sprintf("validator returned HTTP %d", outcome.StatusCode)
		outcome.Body = excerpt(string(body))
		return outcome
	}

	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		outcome.Error = fmt.Sprintf("failed to decode validator response: %v", err)
		outcome.Body = excerpt(string(body))
		return outcome
	}
	outcome.Reachable = true

	conforms, ok := response[validator.conformsKey].(bool)
	if !ok {
		outcome.Error = fmt.Sprintf("validator response has no boolean %q", validator.conformsKey)
		outcome.Body = excerpt(string(body))
		return outcome
	}

	outcome.Conforms = conforms
	if !conforms {
		outcome.Body = excerpt(string(body))
	}
	return outcome
}

// post sends one request. Non-5xx answers are returned without error so the
// caller can report them; 5xx answers and transport errors are returned as
// errors to retry.
func (validator *ShapeValidator) post(ctx context.Context, payload []byte) (int, []byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, validator.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := validator.client.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reach validator: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, nil, fmt.Errorf("failed to read validator response: %w", err)
	}

	if response.StatusCode >= 500 {
		return response.StatusCode, body, &retryableStatusError{StatusCode: response.StatusCode, Body: string(body)}
	}
	return response.StatusCode, body, nil
}

func excerpt(body string) string {
	if len(body) <= maxBodyExcerpt {
		return body
	}
	return body[:maxBodyExcerpt] + "..."
}
