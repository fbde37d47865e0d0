package market

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/logger"
)

// Client is a small JSON-over-HTTP client shared by keyed HTTP providers
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates an HTTP client with the given request timeout
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent": "stockcrawler/1.0",
			"Accept":     "application/json",
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"host":     req.URL.Host,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"host":     req.URL.Host,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}
	return nil
}

// checkResponseStatus maps HTTP status codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	errorType := errs.FromStatusCode(resp.StatusCode)
	c.logger.WarnWithFields("provider returned error status", map[string]interface{}{
		"status": resp.StatusCode,
		"type":   string(errorType),
	})

	switch errorType {
	case errs.ErrorTypeAuth:
		return errs.New(errorType, resp.StatusCode, "authentication failed")
	case errs.ErrorTypeNotFound:
		return errs.New(errorType, resp.StatusCode, "resource not found")
	case errs.ErrorTypeRateLimit:
		return errs.New(errorType, resp.StatusCode, "rate limit exceeded")
	case errs.ErrorTypeServerError:
		return errs.New(errorType, resp.StatusCode, "server error")
	default:
		return errs.New(errorType, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	}
}
