package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kougiview/kougiview-api/pkg/config"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

func tokenInfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func verifierFor(srv *httptest.Server) *GoogleVerifier {
	return NewGoogleVerifier(config.GoogleConfig{
		ClientID:      "client-1",
		TokenInfoURL:  srv.URL,
		VerifyTimeout: 5 * time.Second,
	})
}

func validTokenInfoBody() string {
	exp := time.Now().Add(time.Hour).Unix()
	return fmt.Sprintf(`{"sub":"s1","email":"a@example.com","email_verified":"true","name":"A","aud":"client-1","iss":"accounts.google.com","exp":"%d"}`, exp)
}

func TestGoogleVerifierAcceptsValidToken(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusOK, validTokenInfoBody())
	defer srv.Close()

	info, err := verifierFor(srv).VerifyIDToken(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "s1", info.Subject)
	assert.Equal(t, "a@example.com", info.Email)
}

func TestGoogleVerifierRejectsAudienceMismatch(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	body := fmt.Sprintf(`{"sub":"s1","email_verified":"true","aud":"someone-else","iss":"accounts.google.com","exp":"%d"}`, exp)
	srv := tokenInfoServer(t, http.StatusOK, body)
	defer srv.Close()

	_, err := verifierFor(srv).VerifyIDToken(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidGoogleToken.Code, appErrors.FromError(err).Code)
}

func TestGoogleVerifierRejectsUnverifiedEmail(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	body := fmt.Sprintf(`{"sub":"s1","email_verified":"false","aud":"client-1","iss":"accounts.google.com","exp":"%d"}`, exp)
	srv := tokenInfoServer(t, http.StatusOK, body)
	defer srv.Close()

	_, err := verifierFor(srv).VerifyIDToken(context.Background(), "token")
	require.Error(t, err)
}

func TestGoogleVerifierRejectsExpiredToken(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Unix()
	body := fmt.Sprintf(`{"sub":"s1","email_verified":"true","aud":"client-1","iss":"accounts.google.com","exp":"%d"}`, exp)
	srv := tokenInfoServer(t, http.StatusOK, body)
	defer srv.Close()

	_, err := verifierFor(srv).VerifyIDToken(context.Background(), "token")
	require.Error(t, err)
}

func TestGoogleVerifierRejectsGoogleError(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusBadRequest, `{"error":"invalid_token"}`)
	defer srv.Close()

	_, err := verifierFor(srv).VerifyIDToken(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidGoogleToken.Code, appErrors.FromError(err).Code)
}

func TestGoogleVerifierRejectsEmptyToken(t *testing.T) {
	v := NewGoogleVerifier(config.GoogleConfig{ClientID: "client-1", TokenInfoURL: "http://127.0.0.1:0"})
	_, err := v.VerifyIDToken(context.Background(), "")
	require.Error(t, err)
}
