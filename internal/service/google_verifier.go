package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kougiview/kougiview-api/internal/models"
	"github.com/kougiview/kougiview-api/pkg/config"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
// and checks the claims this service depends on.
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
	now          func() time.Time
}

// NewGoogleVerifier creates a verifier from the Google OAuth configuration.
func NewGoogleVerifier(cfg config.GoogleConfig) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:     cfg.ClientID,
		tokenInfoURL: cfg.TokenInfoURL,
		httpClient:   &http.Client{Timeout: cfg.VerifyTimeout},
		now:          time.Now,
	}
}

// VerifyIDToken resolves the ID token via tokeninfo and validates audience,
// issuer, expiry, and that Google has verified the email address.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*models.GoogleUserInfo, error) {
	if idToken == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidGoogleToken, "missing id token")
	}

	endpoint := fmt.Sprintf("%s?id_token=%s", v.tokenInfoURL, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrInvalidGoogleToken, "token rejected by google")
	}

	var info models.GoogleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if info.Audience != v.clientID {
		return nil, appErrors.Clone(appErrors.ErrInvalidGoogleToken, "token audience mismatch")
	}
	if info.Issuer != "accounts.google.com" && info.Issuer != "https://accounts.google.com" {
		return nil, appErrors.Clone(appErrors.ErrInvalidGoogleToken, "unexpected token issuer")
	}
	if info.EmailVerified != "true" {
		return nil, appErrors.Clone(appErrors.ErrInvalidGoogleToken, "email is not verified")
	}

	exp, err := strconv.ParseInt(info.Expiry, 10, 64)
	if err != nil || !v.now().Before(time.Unix(exp, 0)) {
		return nil, appErrors.Clone(appErrors.ErrInvalidGoogleToken, "token has expired")
	}

	return &info, nil
}
