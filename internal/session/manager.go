// Package session is the client counterpart of the auth API: it keeps the
// token pair in an injected Store, performs login/register/logout, and
// silently refreshes once when a call answers 401.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/campolibero/campo_market/internal/apperr"
)

type Manager struct {
	BaseURL string
	Client  *http.Client
	Store   Store
}

func NewManager(baseURL string, store Store) *Manager {
	return &Manager{
		BaseURL: baseURL,
		Client:  http.DefaultClient,
		Store:   store,
	}
}

type authResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

func (m *Manager) postJSON(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return m.Client.Do(req)
}

func (m *Manager) authenticate(ctx context.Context, path string, body interface{}) (*Session, error) {
	resp, err := m.postJSON(ctx, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperr.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("auth request failed: %s", resp.Status)
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, err
	}

	s := &Session{AccessToken: ar.Token, RefreshToken: ar.RefreshToken, User: ar.User}
	if err := m.Store.Set(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Register(ctx context.Context, username, email, password, role string) (*Session, error) {
	return m.authenticate(ctx, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     role,
	})
}

func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	return m.authenticate(ctx, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Logout revokes the stored refresh token best-effort and always clears the
// local session.
func (m *Manager) Logout(ctx context.Context) error {
	s, err := m.Store.Get()
	if err == nil && s != nil && s.RefreshToken != "" {
		if resp, err := m.postJSON(ctx, "/api/v1/auth/logout", map[string]string{
			"refreshToken": s.RefreshToken,
		}); err == nil {
			resp.Body.Close()
		}
	}
	return m.Store.Clear()
}

// refresh rotates the stored refresh token. On failure the session is
// cleared: the next call starts from the anonymous state.
func (m *Manager) refresh(ctx context.Context) error {
	s, err := m.Store.Get()
	if err != nil || s == nil || s.RefreshToken == "" {
		return apperr.ErrUnauthorized
	}

	resp, err := m.postJSON(ctx, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": s.RefreshToken,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.Store.Clear()
		return apperr.ErrUnauthorized
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		m.Store.Clear()
		return err
	}

	s.AccessToken = ar.Token
	s.RefreshToken = ar.RefreshToken
	return m.Store.Set(s)
}

// Do performs an API call with the stored access token. On a 401 it refreshes
// exactly once and retries the original call once; a second 401 is returned
// as-is. The bounded retry keeps a refresh endpoint that itself answers 401
// from looping.
func (m *Manager) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := m.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := m.refresh(ctx); err != nil {
		return nil, err
	}
	return m.send(ctx, method, path, body)
}

func (m *Manager) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s, err := m.Store.Get(); err == nil && s != nil && s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}
	return m.Client.Do(req)
}

// Me fetches the identity behind the stored access token.
func (m *Manager) Me(ctx context.Context) (*User, error) {
	resp, err := m.Do(ctx, http.MethodGet, "/api/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.ErrUnauthorized
	}

	var body struct {
		User *User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.User, nil
}
