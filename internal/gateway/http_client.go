package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soleshop/cart-sync/internal/domain/dto"
	"github.com/soleshop/cart-sync/internal/domain/model"
	"github.com/soleshop/cart-sync/internal/metrics"
)

// ErrRemote wraps every failure of a remote gateway call. Callers match it
// with errors.Is; the error text carries the server's user-displayable
// message when one was provided.
var ErrRemote = errors.New("cart gateway request failed")

// RemoteError is a gateway failure carrying the server-provided message.
type RemoteError struct {
	// Op is the gateway operation that failed.
	Op string
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int
	// Message is safe to show to the shopper.
	Message string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cart gateway %s failed", e.Op)
}

// Unwrap exposes ErrRemote and the underlying cause for errors.Is/As.
func (e *RemoteError) Unwrap() error {
	if e.Err != nil {
		return fmt.Errorf("%w: %w", ErrRemote, e.Err)
	}
	return ErrRemote
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// HTTPClient implements Gateway over the storefront REST contract. Session
// identity travels implicitly in a cookie jar; the client never manages
// authentication state itself.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a gateway client for the given base URL, for
// example "https://api.example.com/api".
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	c := &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client. The replacement
// should carry a cookie jar so the session cookie survives across calls.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// FetchCart implements Gateway.
func (c *HTTPClient) FetchCart(ctx context.Context) (model.CartSnapshot, error) {
	return c.do(ctx, "fetch", http.MethodGet, "/cart", nil)
}

// AddItem implements Gateway.
func (c *HTTPClient) AddItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error) {
	return c.do(ctx, "add", http.MethodPost, "/cart/add", dto.AddItemRequest{ProductID: productID, Quantity: quantity})
}

// UpdateItem implements Gateway.
func (c *HTTPClient) UpdateItem(ctx context.Context, productID string, quantity int) (model.CartSnapshot, error) {
	return c.do(ctx, "update", http.MethodPut, "/cart/update", dto.UpdateItemRequest{ProductID: productID, Quantity: quantity})
}

// RemoveItem implements Gateway.
func (c *HTTPClient) RemoveItem(ctx context.Context, productID string) (model.CartSnapshot, error) {
	return c.do(ctx, "remove", http.MethodPost, "/cart/remove", dto.RemoveItemRequest{ProductID: productID})
}

// ClearCart implements Gateway.
func (c *HTTPClient) ClearCart(ctx context.Context) (model.CartSnapshot, error) {
	return c.do(ctx, "clear", http.MethodPost, "/cart/clear", nil)
}

// do performs one gateway round trip and normalizes the response envelope.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload interface{}) (model.CartSnapshot, error) {
	start := time.Now()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return model.CartSnapshot{}, &RemoteError{Op: op, Err: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return model.CartSnapshot{}, &RemoteError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordGatewayRequest(op, "error", time.Since(start))
		log.Warn().Err(err).Str("op", op).Msg("cart gateway transport failure")
		return model.CartSnapshot{}, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordGatewayRequest(op, "error", time.Since(start))
		remoteErr := &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
		log.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("message", remoteErr.Message).
			Msg("cart gateway rejected request")
		return model.CartSnapshot{}, remoteErr
	}

	var envelope dto.CartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.RecordGatewayRequest(op, "error", time.Since(start))
		return model.CartSnapshot{}, &RemoteError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	metrics.RecordGatewayRequest(op, "success", time.Since(start))
	log.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("cart gateway call succeeded")
	return envelope.Normalize(), nil
}

// errorMessage extracts the user-displayable message from an error
// envelope, tolerating arbitrary bodies.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var envelope dto.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
