package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the custom claims embedded in access tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// GoogleUserInfo captures the claims returned by Google's tokeninfo endpoint
// that this service relies on.
type GoogleUserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
	Issuer        string `json:"iss"`
	Expiry        string `json:"exp"`
}
