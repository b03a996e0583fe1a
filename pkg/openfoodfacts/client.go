package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the main Open Food Facts instance.
const DefaultBaseURL = "https://world.openfoodfacts.org"

// ErrNotFound is returned when the database has no usable entry for a barcode.
var ErrNotFound = errors.New("product not found")

// Client queries one Open Food Facts family instance
// (food, beauty, products, pet food share the same API).
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	debug      bool
}

// NewClient constructs a client for baseURL. The API asks callers to send an
// identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		debug:      os.Getenv("ENV") == "development",
	}
}

// Name identifies the instance, used in logs and metrics.
func (c *Client) Name() string {
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.baseURL
}

// GetProduct fetches the product registered for barcode.
// It returns ErrNotFound when the instance does not know the barcode.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*Product, error) {
	var resp ProductResponse
	if err := c.doRequest(ctx, "/api/v0/product/"+url.PathEscape(barcode)+".json", &resp); err != nil {
		return nil, err
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil, ErrNotFound
	}
	return resp.Product, nil
}

// doRequest performs a GET against the instance and decodes the JSON body into result.
func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", c.baseURL+endpoint).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(respBody)).
			Msg("[OFF] Incoming response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.Name())
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
