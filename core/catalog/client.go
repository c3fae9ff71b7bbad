package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/clientcredentials"
)

// maxErrorDetail bounds how much of an error body ends up in reports.
const maxErrorDetail = 512

// RemoteVehicle is the subset of a catalog listing the engine cares about.
type RemoteVehicle struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	Active     bool   `json:"active"`
	Pricing    struct {
		SalesPrice decimal.Decimal `json:"salesPrice"`
	} `json:"pricing"`
}

// Client talks to the platform catalog API.
type Client struct {
	baseURL  string
	dealerID string
	http     *http.Client
}

// NewClient creates a client from the configuration. With a client id set,
// requests carry OAuth2 client-credentials bearer tokens; tokens are cached
// and refreshed by the underlying token source.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog: base_url is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = base + "/oauth/token"
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:  base,
		dealerID: cfg.DealerID,
		http:     httpClient,
	}, nil
}

// ListVehicles returns the platform's active listings. Used for the
// identity cross-check and available to callers that want platform-side
// truth instead of the local identity store.
func (c *Client) ListVehicles(ctx context.Context) ([]RemoteVehicle, error) {
	var out []RemoteVehicle
	if err := c.do(ctx, http.MethodGet, "/vehicles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVehicle publishes a new listing and returns the platform id.
func (c *Client) CreateVehicle(ctx context.Context, payload any) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/vehicles", payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &APIError{Status: http.StatusOK, Path: "/vehicles", Detail: "create response carries no id"}
	}
	return resp.ID, nil
}

// UpdateVehicle replaces the catalog fields of an existing listing.
func (c *Client) UpdateVehicle(ctx context.Context, remoteID string, payload any) error {
	return c.do(ctx, http.MethodPut, "/vehicles/"+remoteID, payload, nil)
}

// UpdatePrice changes the advertised price. notifyDiscount asks the
// platform to flag the listing as discounted.
func (c *Client) UpdatePrice(ctx context.Context, remoteID string, price decimal.Decimal, notifyDiscount bool) error {
	body := struct {
		Price          decimal.Decimal `json:"price"`
		NotifyDiscount bool            `json:"notifyDiscount"`
	}{Price: price, NotifyDiscount: notifyDiscount}
	return c.do(ctx, http.MethodPost, "/vehicles/"+remoteID+"/price", body, nil)
}

// CloseVehicle deactivates a listing.
func (c *Client) CloseVehicle(ctx context.Context, remoteID string) error {
	return c.do(ctx, http.MethodPost, "/vehicles/"+remoteID+"/close", struct{}{}, nil)
}

// do issues one JSON request. Failures come back classified: network errors
// as *TransportError, non-2xx responses as *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("catalog: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("catalog: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.dealerID != "" {
		req.Header.Set("X-Dealer-Id", c.dealerID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorDetail))
		return &APIError{
			Status: resp.StatusCode,
			Path:   path,
			Detail: strings.TrimSpace(string(detail)),
		}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("catalog: decode %s %s: %w", method, path, err)
	}
	return nil
}
