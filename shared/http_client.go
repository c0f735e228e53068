package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultUserAgent is sent on every outbound call unless a caller overrides it
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	AcceptJSON = "application/json, text/plain, */*"
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

	maxResponseBytes = 5 << 20
)

// TransportConfig configures the shared outbound client
type TransportConfig struct {
	Timeout          time.Duration
	PolitenessDelay  time.Duration
	MaxRetryAttempts int
}

// DefaultTransportConfig returns the production defaults
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:          30 * time.Second,
		PolitenessDelay:  250 * time.Millisecond,
		MaxRetryAttempts: 1,
	}
}

// OutboundRequest describes one call to a registrar site
type OutboundRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Accept  string
	// Retry enables backoff retries; only set it for idempotent reads
	Retry bool
}

// OutboundResponse is a fully read upstream response
type OutboundResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// HTTPTransport is the shared outbound client used by every checker and listing source
type HTTPTransport struct {
	client  *http.Client
	limiter *HostRateLimiter
	config  TransportConfig
}

// NewHTTPTransport creates a transport with connection pooling and a fixed timeout
func NewHTTPTransport(config TransportConfig) *HTTPTransport {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetryAttempts < 0 {
		config.MaxRetryAttempts = 0
	}

	return &HTTPTransport{
		client:  NewPooledHTTPClient(config.Timeout),
		limiter: NewHostRateLimiter(config.PolitenessDelay),
		config:  config,
	}
}

// NewPooledHTTPClient creates an HTTP client with connection pooling
func NewPooledHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Timeout returns the per-call timeout
func (t *HTTPTransport) Timeout() time.Duration {
	return t.config.Timeout
}

// RoundTripper exposes the pooled transport so collectors can share connections
func (t *HTTPTransport) RoundTripper() http.RoundTripper {
	return t.client.Transport
}

// Limiter returns the per-host politeness limiter
func (t *HTTPTransport) Limiter() *HostRateLimiter {
	return t.limiter
}

// SetBrowserLikeHeaders configures HTTP request headers to mimic browser behavior
func SetBrowserLikeHeaders(header http.Header, acceptHeader string) {
	if acceptHeader == "" {
		acceptHeader = AcceptHTML
	}
	header.Set("User-Agent", DefaultUserAgent)
	header.Set("Accept", acceptHeader)
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
}

// Get performs a GET with default headers
func (t *HTTPTransport) Get(ctx context.Context, targetURL string, headers map[string]string) (*OutboundResponse, error) {
	return t.Do(ctx, OutboundRequest{Method: http.MethodGet, URL: targetURL, Headers: headers})
}

// PostJSON marshals payload and posts it as application/json
func (t *HTTPTransport) PostJSON(ctx context.Context, targetURL string, payload interface{}, headers map[string]string) (*OutboundResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	merged := map[string]string{"Content-Type": "application/json; charset=utf-8"}
	for k, v := range headers {
		merged[k] = v
	}
	return t.Do(ctx, OutboundRequest{Method: http.MethodPost, URL: targetURL, Headers: merged, Body: body, Accept: AcceptJSON})
}

// PostForm posts url-encoded form values
func (t *HTTPTransport) PostForm(ctx context.Context, targetURL string, values url.Values, headers map[string]string) (*OutboundResponse, error) {
	merged := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	for k, v := range headers {
		merged[k] = v
	}
	return t.Do(ctx, OutboundRequest{Method: http.MethodPost, URL: targetURL, Headers: merged, Body: []byte(values.Encode())})
}

// Do executes the request. Non-2xx responses are returned together with a network error
// so callers can still inspect the body.
func (t *HTTPTransport) Do(ctx context.Context, req OutboundRequest) (*OutboundResponse, error) {
	parsedURL, err := url.Parse(req.URL)
	if err != nil {
		return nil, NewServiceError(ErrorCategoryConfiguration, "INVALID_URL", err.Error(), "HTTPTransport", "Do", false, err)
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPTransport",
		"method":    req.Method,
		"url":       req.URL,
	})

	attempts := 1
	if req.Retry {
		attempts += t.config.MaxRetryAttempts
	}

	var lastErr error
	for attemptNumber := 0; attemptNumber < attempts; attemptNumber++ {
		if attemptNumber > 0 {
			// Exponential backoff with jitter
			baseBackoffDuration := time.Duration(1<<uint(attemptNumber-1)) * time.Second
			jitterDuration := time.Duration(float64(baseBackoffDuration) * 0.1 * (0.5 + 0.5*float64(attemptNumber%3)/2))
			logger.WithFields(logrus.Fields{
				"attempt":          attemptNumber + 1,
				"backoff_duration": baseBackoffDuration + jitterDuration,
			}).Debug("Retrying HTTP request after backoff")
			time.Sleep(baseBackoffDuration + jitterDuration)
			RecordOutboundRetry(parsedURL.Host)
		}

		t.limiter.EnforceRateLimit(parsedURL.Host)

		started := time.Now()
		response, execErr := t.execute(ctx, req)
		ObserveOutboundRequest(parsedURL.Host, outcomeOf(response, execErr), time.Since(started))
		if execErr == nil {
			return response, nil
		}

		lastErr = execErr
		if response != nil && response.StatusCode < 500 && response.StatusCode != http.StatusTooManyRequests {
			// Client errors will not improve on retry
			return response, execErr
		}
		if !IsRetryableError(execErr) && response == nil {
			break
		}
		if attemptNumber == attempts-1 {
			return response, execErr
		}
	}

	logger.WithError(lastErr).Debug("HTTP request failed")
	return nil, lastErr
}

func (t *HTTPTransport) execute(ctx context.Context, req OutboundRequest) (*OutboundResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, NewServiceError(ErrorCategoryConfiguration, "INVALID_REQUEST", err.Error(), "HTTPTransport", "execute", false, err)
	}

	SetBrowserLikeHeaders(httpRequest.Header, req.Accept)
	for key, value := range req.Headers {
		httpRequest.Header.Set(key, value)
	}

	httpResponse, err := t.client.Do(httpRequest)
	if err != nil {
		return nil, ClassifyTransportError(err, httpRequest.URL.Host, "execute")
	}
	defer httpResponse.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseBytes))
	if err != nil {
		return nil, ClassifyTransportError(fmt.Errorf("failed to read response body: %w", err), httpRequest.URL.Host, "execute")
	}

	response := &OutboundResponse{
		StatusCode: httpResponse.StatusCode,
		Header:     httpResponse.Header,
		Body:       payload,
		URL:        httpResponse.Request.URL.String(),
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		retryable := httpResponse.StatusCode >= 500 || httpResponse.StatusCode == http.StatusTooManyRequests
		return response, NewServiceError(
			ErrorCategoryNetwork,
			"UPSTREAM_STATUS",
			fmt.Sprintf("upstream returned HTTP %d: %s", httpResponse.StatusCode, http.StatusText(httpResponse.StatusCode)),
			httpRequest.URL.Host,
			"execute",
			retryable,
			nil,
		).WithDetails(map[string]interface{}{"status_code": httpResponse.StatusCode})
	}

	return response, nil
}

func outcomeOf(response *OutboundResponse, err error) string {
	switch {
	case err == nil:
		return "ok"
	case CategoryOf(err) == ErrorCategoryTimeout:
		return "timeout"
	case response != nil:
		return fmt.Sprintf("status_%dxx", response.StatusCode/100)
	default:
		return "error"
	}
}
