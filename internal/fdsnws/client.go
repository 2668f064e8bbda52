package fdsnws

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Version is stamped into the User-Agent of every request.
const Version = "1.0.0"

// Status classifies a completed service request.
type Status int

const (
	// StatusOK means a 2xx response with a body to consume.
	StatusOK Status = iota
	// StatusNoData means the service matched nothing (204 or 404).
	// It is not an error; the pipeline continues.
	StatusNoData
	// StatusError is any other non-success response.
	StatusError
)

// ServiceError carries the HTTP status and the service's error message
// body for a failed request.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("service returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("service returned HTTP %d: %s", e.Code, msg)
}

// Client issues the sequential GETs the pipeline runs on. One request
// completes (or fails) before the next begins; there is no fan-out.
type Client struct {
	httpClient *http.Client
	userAgent  string
	username   string
	password   string
}

// NewClient builds a client. appID is the caller-supplied application
// identification string appended to the default agent; credentials is an
// optional "user:pass" pair for services that require basic auth.
func NewClient(appID, credentials string) (*Client, error) {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  "fdsnfetch/" + Version,
	}
	if appID != "" {
		c.userAgent += " " + appID
	}
	if credentials != "" {
		user, pass, ok := strings.Cut(credentials, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("credentials must be in user:pass form")
		}
		c.username, c.password = user, pass
	}
	return c, nil
}

// Get performs one GET and classifies the outcome. On StatusOK the caller
// owns the returned body reader and must close it. On StatusError the
// returned error is a *ServiceError holding the message body; the body
// reader is already closed. On StatusNoData both returns are nil.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, StatusError, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, StatusError, fmt.Errorf("request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, StatusNoData, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// The service puts its diagnostic in the body.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		resp.Body.Close()
		return nil, StatusError, &ServiceError{Code: resp.StatusCode, Message: string(msg)}
	}
	return resp.Body, StatusOK, nil
}

// GetBytes performs one GET and buffers the whole body, for responses
// that are parsed as a unit (metadata XML).
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, Status, error) {
	body, status, err := c.Get(ctx, url)
	if status != StatusOK {
		return nil, status, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, StatusError, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, StatusOK, nil
}
