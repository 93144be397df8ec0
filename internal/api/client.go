// Package api performs every network call against the finance backend.
//
// The bearer token is read from the credential store on each request, so a
// login or logout is observed by the very next call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"finboss/internal/credentials"
	applog "finboss/internal/log"
)

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      credentials.Store
	Logger     *applog.Logger
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credentials.Store
	logger     *applog.Logger
}

// New validates the base URL and builds a client. A nil HTTPClient gets a
// default client wrapped with request logging.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrInvalidRequest, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q needs scheme and host", ErrInvalidRequest, cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentAPI)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: NewLoggingTransport(nil, logger)}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		store:      cfg.Store,
		logger:     logger,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return u.String(), nil
}

func (c *Client) token(ctx context.Context) (string, bool) {
	token, ok, err := c.store.Retrieve(ctx, credentials.AccessTokenKey)
	if err != nil {
		c.logger.WarnContext(ctx, "Credential store read failed, sending request unauthenticated",
			applog.FieldError, err.Error())
		return "", false
	}
	return token, ok && token != ""
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target, err := c.resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncoding, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok := c.token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &HTTPError{StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	return nil
}

// Get issues a GET and decodes the response into R.
func Get[R any](ctx context.Context, c *Client, path string) (R, error) {
	var out R
	err := c.Get(ctx, path, &out)
	return out, err
}

// Post issues a POST with body T and decodes the response into R.
func Post[T, R any](ctx context.Context, c *Client, path string, body T) (R, error) {
	var out R
	err := c.Post(ctx, path, body, &out)
	return out, err
}

// Put issues a PUT with body T and decodes the response into R.
func Put[T, R any](ctx context.Context, c *Client, path string, body T) (R, error) {
	var out R
	err := c.Put(ctx, path, body, &out)
	return out, err
}

// Delete issues a DELETE and decodes the response into R.
func Delete[R any](ctx context.Context, c *Client, path string) (R, error) {
	var out R
	err := c.Delete(ctx, path, &out)
	return out, err
}
