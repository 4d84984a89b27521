// Package auth manages authentication tokens for the Swift object store.
//
// Tokens are fetched lazily on first use, cached, and refreshed when the
// store reports them expired. Concurrent refreshes collapse into a single
// request via singleflight so a burst of 401s does not hammer the auth
// endpoint.
package auth

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

// Swift v1.0 auth headers.
const (
	headerAuthUser   = "X-Auth-User"
	headerAuthKey    = "X-Auth-Key"
	headerAuthToken  = "X-Auth-Token"
	headerStorageURL = "X-Storage-Url"
)

// Credentials identify an account against a Swift v1.0 auth endpoint.
type Credentials struct {
	// AuthURL is the authentication endpoint (e.g., "http://swift:8080/auth/v1.0")
	AuthURL string

	// User is the account user (e.g., "test:tester")
	User string

	// Key is the account key/password
	Key string
}

// Session is an authenticated session against the store.
type Session struct {
	// Token is sent as X-Auth-Token on every storage request
	Token string

	// StorageURL is the account's storage endpoint returned by auth
	StorageURL string
}

// Manager caches a session and refreshes it on demand.
type Manager struct {
	creds  Credentials
	client *resty.Client

	mu    sync.Mutex
	sess  *Session
	group singleflight.Group
}

// NewManager creates a Manager that authenticates with the given credentials
// using the provided resty client.
func NewManager(creds Credentials, client *resty.Client) *Manager {
	return &Manager{
		creds:  creds,
		client: client,
	}
}

// Session returns the cached session, authenticating first if none is held.
func (m *Manager) Session(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.sess != nil {
		sess := *m.sess
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	return m.refresh(ctx)
}

// Invalidate discards the cached session if it still matches stale. The next
// Session call re-authenticates. Passing the stale session prevents a racing
// caller from discarding a session that was refreshed in the meantime.
func (m *Manager) Invalidate(stale Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil && m.sess.Token == stale.Token {
		m.sess = nil
	}
}

// refresh performs the auth round-trip. Concurrent callers share one request.
func (m *Manager) refresh(ctx context.Context) (Session, error) {
	v, err, _ := m.group.Do("auth", func() (interface{}, error) {
		resp, err := m.client.R().
			SetContext(ctx).
			SetHeader(headerAuthUser, m.creds.User).
			SetHeader(headerAuthKey, m.creds.Key).
			Get(m.creds.AuthURL)
		if err != nil {
			return nil, fmt.Errorf("swift auth: %w", err)
		}

		switch {
		case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
			return nil, fmt.Errorf("swift auth: %w", fs.ErrPermission)
		case resp.StatusCode() < 200 || resp.StatusCode() >= 300:
			return nil, fmt.Errorf("swift auth: unexpected status %d", resp.StatusCode())
		}

		sess := Session{
			Token:      resp.Header().Get(headerAuthToken),
			StorageURL: resp.Header().Get(headerStorageURL),
		}
		if sess.Token == "" || sess.StorageURL == "" {
			return nil, fmt.Errorf("swift auth: response missing %s or %s",
				headerAuthToken, headerStorageURL)
		}

		m.mu.Lock()
		m.sess = &sess
		m.mu.Unlock()

		return sess, nil
	})
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}
