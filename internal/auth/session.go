package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrAuthRequired = errors.New("authentication required")

// SessionContext is the authenticated identity passed explicitly into the
// services that need it. A zero value means "not signed in".
type SessionContext struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

func (s SessionContext) Authenticated() bool {
	return s.UserID != ""
}

// Authenticator resolves a bearer token into a session. The token-issuing
// service is an external collaborator; this side only consumes it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*SessionContext, error)
}

type HTTPAuthenticator struct {
	client  *http.Client
	baseURL string
}

func NewHTTPAuthenticator(baseURL string, timeout time.Duration) *HTTPAuthenticator {
	return &HTTPAuthenticator{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

func (a *HTTPAuthenticator) Authenticate(ctx context.Context, token string) (*SessionContext, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/auth/session", nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthRequired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session lookup returned status %d", resp.StatusCode)
	}

	var session SessionContext
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !session.Authenticated() {
		return nil, ErrAuthRequired
	}
	return &session, nil
}
