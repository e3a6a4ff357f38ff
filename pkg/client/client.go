package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/voltdeck/voltdeck/pkg/domain"
)

// LoginResponse is the payload returned by a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ChangePasswordResponse is the payload returned by the change-password
// endpoint. Error carries the server's message when Success is false.
type ChangePasswordResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeviceRequest is the payload for creating or updating a device.
type DeviceRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// LimitsRequest is the payload for configuring usage limits, in watts.
type LimitsRequest struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
}

// Client is the Energy MS API client. The bearer token is mutable shared
// state; only the session store writes it, synchronously with session
// changes, so requests never go out under a credential from a previous
// session.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken replaces the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token so subsequent requests go out
// unauthenticated.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently attached bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a bearer token and display name.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Signup registers a new account. No session is established; callers log in
// afterwards with the same credentials.
func (c *Client) Signup(ctx context.Context, email, username, password string) error {
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.post(ctx, "/auth/signup", body, nil); err != nil {
		return fmt.Errorf("client.Signup: %w", err)
	}
	return nil
}

// ChangePassword updates the authenticated user's password. Server-side
// rejections come back in the response payload, not as an HTTP error.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*ChangePasswordResponse, error) {
	var resp ChangePasswordResponse
	body := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	if err := c.post(ctx, "/auth/change-password", body, &resp); err != nil {
		return nil, fmt.Errorf("client.ChangePassword: %w", err)
	}
	return &resp, nil
}

// ListDevices fetches all of the user's devices.
func (c *Client) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	if err := c.get(ctx, "/devices", &devices); err != nil {
		return nil, fmt.Errorf("client.ListDevices: %w", err)
	}
	return devices, nil
}

// GetDevice fetches a single device by ID.
func (c *Client) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	var device domain.Device
	if err := c.get(ctx, "/devices/"+url.PathEscape(id), &device); err != nil {
		return nil, fmt.Errorf("client.GetDevice: %w", err)
	}
	return &device, nil
}

// CreateDevice registers a new device.
func (c *Client) CreateDevice(ctx context.Context, req DeviceRequest) error {
	if err := c.post(ctx, "/devices", req, nil); err != nil {
		return fmt.Errorf("client.CreateDevice: %w", err)
	}
	return nil
}

// UpdateDevice updates a device's name and location.
func (c *Client) UpdateDevice(ctx context.Context, id string, req DeviceRequest) error {
	if err := c.doRequest(ctx, http.MethodPut, "/devices/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("client.UpdateDevice: %w", err)
	}
	return nil
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/devices/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteDevice: %w", err)
	}
	return nil
}

// DeviceReadings fetches the reading series for a device, ordered by
// timestamp ascending.
func (c *Client) DeviceReadings(ctx context.Context, deviceID string) ([]domain.Reading, error) {
	var readings []domain.Reading
	if err := c.get(ctx, "/energy-data/device/"+url.PathEscape(deviceID), &readings); err != nil {
		return nil, fmt.Errorf("client.DeviceReadings: %w", err)
	}
	return readings, nil
}

// LatestReading fetches the most recent reading for a device.
func (c *Client) LatestReading(ctx context.Context, deviceID string) (*domain.Reading, error) {
	var reading domain.Reading
	if err := c.get(ctx, "/energy-data/device/"+url.PathEscape(deviceID)+"/latest", &reading); err != nil {
		return nil, fmt.Errorf("client.LatestReading: %w", err)
	}
	return &reading, nil
}

// TotalUsage fetches the per-user usage rollup across all devices.
func (c *Client) TotalUsage(ctx context.Context) (*domain.UsageOverview, error) {
	var overview domain.UsageOverview
	if err := c.get(ctx, "/energy-data/user/total-usage", &overview); err != nil {
		return nil, fmt.Errorf("client.TotalUsage: %w", err)
	}
	return &overview, nil
}

// UsageAndLimits fetches current usage totals plus any configured limits.
func (c *Client) UsageAndLimits(ctx context.Context) (*domain.UsageSummary, error) {
	var summary domain.UsageSummary
	if err := c.get(ctx, "/energy-limits/usage", &summary); err != nil {
		return nil, fmt.Errorf("client.UsageAndLimits: %w", err)
	}
	return &summary, nil
}

// SetLimits configures the daily and monthly usage limits.
func (c *Client) SetLimits(ctx context.Context, req LimitsRequest) error {
	if err := c.post(ctx, "/energy-limits/limits", req, nil); err != nil {
		return fmt.Errorf("client.SetLimits: %w", err)
	}
	return nil
}

// Notifications fetches limit-breach notifications, most recent first.
func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var notifications []domain.Notification
	if err := c.get(ctx, "/energy-limits/notifications", &notifications); err != nil {
		return nil, fmt.Errorf("client.Notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationsRead marks all of the user's notifications as read.
func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPut, "/energy-limits/notifications/read", nil, nil); err != nil {
		return fmt.Errorf("client.MarkNotificationsRead: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
