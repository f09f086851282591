// Package settingsapi is the HTTP client for the platform Settings API.
package settingsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/talkio/realtime-client/internal/notify"
)

// ErrNoCredentials reports a fetch attempted before Connect supplied a
// session token. The settings provider treats it like any upstream failure
// and keeps serving its last snapshot.
var ErrNoCredentials = errors.New("settingsapi: no credentials")

// Credentialer receives the session credentials once the host connects.
type Credentialer interface {
	SetCredentials(token string)
}

type Client struct {
	baseURL string
	hc      *http.Client

	mu    sync.RWMutex
	token string
}

var (
	_ notify.SettingsAPI = (*Client)(nil)
	_ Credentialer       = (*Client)(nil)
)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) SetCredentials(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) NotificationSettings(ctx context.Context) (notify.Settings, error) {
	if c.baseURL == "" {
		// Unconfigured API: everything-on defaults, no error so the
		// breaker never opens over a deliberate deployment choice.
		return notify.DefaultSettings(), nil
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return notify.Settings{}, ErrNoCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/notification-settings", nil)
	if err != nil {
		return notify.Settings{}, fmt.Errorf("settingsapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return notify.Settings{}, fmt.Errorf("settingsapi: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return notify.Settings{}, fmt.Errorf("settingsapi: unexpected status %d", resp.StatusCode)
	}

	var s notify.Settings
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return notify.Settings{}, fmt.Errorf("settingsapi: decode: %w", err)
	}
	return s, nil
}
