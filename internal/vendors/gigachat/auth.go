package gigachat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/google/uuid"
)

// tokenExpirySkew is subtracted from the token expiry so that a token is
// never sent right as it expires.
const tokenExpirySkew = time.Minute

// tokenSource exchanges the authorization key for an access token and
// caches it until shortly before it expires.
type tokenSource struct {
	authURL     string
	credentials string
	scope       string
	client      *http.Client
	now         func() time.Time
	debug       bool

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(client *http.Client, authURL, credentials, scope string) *tokenSource {
	return &tokenSource{
		authURL:     authURL,
		credentials: credentials,
		scope:       scope,
		client:      client,
		now:         time.Now,
	}
}

// Token returns a valid access token, fetching a new one if needed.
// Concurrent callers wait for the same refresh.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && ts.now().Before(ts.expiresAt.Add(-tokenExpirySkew)) {
		return ts.token, nil
	}
	tr, err := ts.fetch(ctx)
	if err != nil {
		return "", err
	}
	ts.token = tr.AccessToken
	ts.expiresAt = time.UnixMilli(tr.ExpiresAt)
	if ts.debug {
		ancli.Noticef("gigachat: fetched new access token, expires at: %v\n", ts.expiresAt)
	}
	return ts.token, nil
}

// Invalidate the cached token, forcing a refresh on next call to Token.
func (ts *tokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.expiresAt = time.Time{}
	ts.mu.Unlock()
}

func (ts *tokenSource) fetch(ctx context.Context) (tokenResponse, error) {
	form := url.Values{}
	form.Set("scope", ts.scope)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+ts.credentials)

	res, err := ts.client.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return tokenResponse{}, fmt.Errorf("unexpected status code on token request: %v, body: %v", res.Status, string(body))
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return tokenResponse{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return tokenResponse{}, fmt.Errorf("token response had no access_token")
	}
	return tr, nil
}
