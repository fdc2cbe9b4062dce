package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
)

// refreshSkew renews the token slightly before the provider's expiry so
// in-flight requests never carry a token that dies mid-call.
const refreshSkew = 30 * time.Second

// tokenSource caches the client-credentials bearer token until close to
// expiry. Concurrent refreshes are serialized by the mutex; a refresh
// race would be harmless (both tokens valid) but one exchange is cheaper
// than two.
type tokenSource struct {
	httpClient   *http.Client
	clock        clock.Clock
	endpoint     string
	clientID     string
	clientSecret string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(httpClient *http.Client, clk clock.Clock, endpoint, clientID, clientSecret string) *tokenSource {
	return &tokenSource{
		httpClient:   httpClient,
		clock:        clk,
		endpoint:     strings.TrimRight(endpoint, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns the cached bearer token, exchanging credentials only
// when the cache is absent or past expiry.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.clock.Now().Before(t.expiry) {
		return t.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &domain.GatewayError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &domain.GatewayError{Status: resp.StatusCode, Body: string(body)}
	}
	if tok.AccessToken == "" || tok.ExpiresIn <= 0 {
		return "", &domain.GatewayError{Status: resp.StatusCode, Body: string(body)}
	}

	t.token = tok.AccessToken
	t.expiry = t.clock.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - refreshSkew)
	return t.token, nil
}

// Invalidate drops the cached token so the next call re-authenticates.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiry = time.Time{}
	t.mu.Unlock()
}
