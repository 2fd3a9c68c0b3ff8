package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

const (
	defaultBaseURL             = "https://partners.olivraison.com"
	defaultTokenTTL            = time.Hour
	errorBodyReadLimit   int64 = 1024
	tokenExpirySlack           = 30 * time.Second
)

// Client talks to the delivery partner API. Bearer tokens are cached and
// refreshed lazily; credentials are re-read from the source on every
// refresh.
type Client struct {
	httpClient  *http.Client
	credentials CredentialsSource
	logg        *logger.Logger
	baseURL     string
	defaultCity string
	tokenTTL    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL sets the gateway base URL used when the stored credentials do
// not carry one.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithDefaultCity sets the city used for orders that have none.
func WithDefaultCity(city string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(city)
		if trimmed != "" {
			c.defaultCity = trimmed
		}
	}
}

// WithTokenTTL overrides the fallback token lifetime used when the gateway
// login response has no parseable expiration.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the gateway client.
func NewClient(credentials CredentialsSource, logg *logger.Logger, opts ...Option) (*Client, error) {
	if credentials == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "credentials source is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		credentials: credentials,
		logg:        logg,
		baseURL:     defaultBaseURL,
		defaultCity: "Alger",
		tokenTTL:    defaultTokenTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ShipmentRequest is the order data handed to the gateway.
type ShipmentRequest struct {
	Reference   string
	Customer    string
	Phone       string
	City        string
	Address     string
	Price       decimal.Decimal
	Description string
	Comment     string
}

// Shipment is the gateway's view of a registered package. Status is whatever
// vocabulary the gateway uses; it is never interpreted locally.
type Shipment struct {
	TrackingID string
	Status     string
}

// CreateShipment registers a package with the gateway and returns its
// tracking id.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	if strings.TrimSpace(req.Customer) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment customer and phone are required")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Commande"
	}

	payload := map[string]any{
		"price":       req.Price.InexactFloat64(),
		"comment":     req.Comment,
		"description": description,
		"inventory":   false,
		"name":        "Order " + req.Reference,
		"destination": map[string]any{
			"name":          req.Customer,
			"phone":         req.Phone,
			"city":          NormalizeCity(req.City, c.defaultCity),
			"streetAddress": req.Address,
		},
	}

	var apiResp struct {
		TrackingID string `json:"trackingID"`
		CheckingID string `json:"checkingID"`
		ID         string `json:"id"`
		Status     string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "package", payload, &apiResp); err != nil {
		return nil, err
	}

	trackingID := firstNonEmpty(apiResp.TrackingID, apiResp.CheckingID, apiResp.ID)
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned no tracking id")
	}
	return &Shipment{TrackingID: trackingID, Status: apiResp.Status}, nil
}

// ShipmentStatus fetches the gateway's current status string for a package.
func (c *Client) ShipmentStatus(ctx context.Context, trackingID string) (string, error) {
	trimmed := strings.TrimSpace(trackingID)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}

	var apiResp struct {
		Status string `json:"status"`
	}
	path := fmt.Sprintf("package/%s", url.PathEscape(trimmed))
	if err := c.do(ctx, http.MethodGet, path, nil, &apiResp); err != nil {
		return "", err
	}
	if apiResp.Status == "" {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "gateway returned no status")
	}
	return apiResp.Status, nil
}

// CancelShipment removes a package from the gateway. A 404 counts as
// success: the package is gone either way.
func (c *Client) CancelShipment(ctx context.Context, trackingID string) error {
	trimmed := strings.TrimSpace(trackingID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}

	path := fmt.Sprintf("package/%s", url.PathEscape(trimmed))
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	token, err := c.bearerToken(ctx, false)
	if err != nil {
		return err
	}

	status, err := c.roundTrip(ctx, method, path, payload, token, out)
	if status == http.StatusUnauthorized {
		// Token expired server-side, refresh once and replay.
		token, err = c.bearerToken(ctx, true)
		if err != nil {
			return err
		}
		_, err = c.roundTrip(ctx, method, path, payload, token, out)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any, token string, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal gateway request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, pkgerrors.New(pkgerrors.CodeNotFound, "gateway package not found")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, pkgerrors.New(pkgerrors.CodeGateway,
			fmt.Sprintf("gateway request failed: status %d: %s", resp.StatusCode, readErrorMessage(resp.Body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode gateway response")
		}
	}
	return resp.StatusCode, nil
}

// bearerToken returns a cached token, authenticating when the cache is cold,
// stale or force-refreshed.
func (c *Client) bearerToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.token != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.token, nil
	}

	creds, err := c.credentials.ReadCredentials(ctx)
	if err != nil {
		return "", err
	}

	baseURL := c.baseURL
	if creds.BaseURL != "" {
		baseURL = creds.BaseURL
	}

	raw, err := json.Marshal(map[string]string{
		"apiKey":    creds.APIKey,
		"secretKey": creds.SecretKey,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal login request")
	}

	loginURL := fmt.Sprintf("%s/auth/login", strings.TrimRight(baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute login request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeGateway,
			fmt.Sprintf("gateway login failed: status %d: %s", resp.StatusCode, readErrorMessage(resp.Body)))
	}

	var loginResp struct {
		Token      string `json:"token"`
		Expiration string `json:"expiration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode login response")
	}
	if loginResp.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "gateway login returned no token")
	}

	c.baseURL = baseURL
	c.token = loginResp.Token
	c.tokenExpiry = c.parseExpiration(loginResp.Expiration)
	c.logg.Info(ctx, "delivery gateway token refreshed")
	return c.token, nil
}

// parseExpiration trusts the gateway's RFC3339 expiration when present and
// sane, otherwise falls back to the configured TTL.
func (c *Client) parseExpiration(raw string) time.Time {
	fallback := c.now().Add(c.tokenTTL)
	if raw == "" {
		return fallback
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil || !parsed.After(c.now()) {
		return fallback
	}
	return parsed
}

func (c *Client) buildURL(path string) string {
	c.mu.Lock()
	base := c.baseURL
	c.mu.Unlock()
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}

// readErrorMessage pulls the human message out of a gateway error body,
// whichever of its error fields is populated.
func readErrorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, errorBodyReadLimit))
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "empty response body"
	}

	var payload struct {
		Description string `json:"description"`
		Message     string `json:"message"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if msg := firstNonEmpty(payload.Description, payload.Message, payload.Error); msg != "" {
			return msg
		}
	}
	return trimmed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
