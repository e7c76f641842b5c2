// Package client talks to the storefront REST API.
//
// The client only moves bytes: it returns *APIError for non-2xx replies and
// wrapped transport or decoding errors otherwise. Classifying failures into
// user-facing kinds is the job of the service layer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"storefront/models"
)

const (
	defaultUserAgent = "storefront-client/1.0"
	maxErrorBody     = 64 << 10
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx reply from the storefront API
type APIError struct {
	StatusCode int
	Message    string // server-supplied message, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("storefront API returned status %d: %s", e.StatusCode, e.Message)
}

// Client is a storefront API client with optional client-side rate limiting
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit limits outgoing API calls to rps requests per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.rateLimiter = nil
			return
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the API rooted at baseURL (e.g. "http://localhost:8082/api/v1")
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetProducts calls GET /products
func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.doRequest(ctx, http.MethodGet, "/products", "", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return nonNilProducts(products), nil
}

// SearchProducts calls GET /products/search?value=<query>
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	path := "/products/search?value=" + url.QueryEscape(query)

	var products []models.Product
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to search products with query '%s': %w", query, err)
	}
	return nonNilProducts(products), nil
}

// GetCart calls GET /cart with the bearer token
func (c *Client) GetCart(ctx context.Context, token string) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	if err := c.doRequest(ctx, http.MethodGet, "/cart", token, nil, &entries); err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return nonNilEntries(entries), nil
}

// SetCartItem calls POST /cart and returns the full cart as stored by the server.
// qty 0 removes the product.
func (c *Client) SetCartItem(ctx context.Context, token, productID string, qty int) ([]models.CartEntry, error) {
	body := models.SetCartItemRequest{ProductID: productID, Qty: qty}

	var entries []models.CartEntry
	if err := c.doRequest(ctx, http.MethodPost, "/cart", token, body, &entries); err != nil {
		return nil, fmt.Errorf("failed to set cart item %s to %d: %w", productID, qty, err)
	}
	return nonNilEntries(entries), nil
}

// Login calls POST /auth/login
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	var res models.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", creds, &res); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return &res, nil
}

// Register calls POST /auth/register
func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.RegisterResponse, error) {
	var res models.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", "", creds, &res); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	return &res, nil
}

// FetchImage downloads raw image bytes from an absolute URL or a path under the API root.
// Image downloads are not rate limited.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image URL is empty")
	}
	fullURL := imageURL
	if imageURL[0] == '/' {
		fullURL = c.baseURL + imageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// doRequest performs one API call. There are no retries: every failure is returned once.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result interface{}) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var errBody models.APIErrorBody
	if err := json.Unmarshal(data, &errBody); err == nil {
		apiErr.Message = strings.TrimSpace(errBody.Message)
	}
	return apiErr
}

func nonNilProducts(p []models.Product) []models.Product {
	if p == nil {
		return []models.Product{}
	}
	return p
}

func nonNilEntries(e []models.CartEntry) []models.CartEntry {
	if e == nil {
		return []models.CartEntry{}
	}
	return e
}
