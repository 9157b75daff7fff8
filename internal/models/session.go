package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the access-token payload issued by the identity provider.
// Role is informational; authorization always uses the role loaded from storage.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// IssuedSession is returned when a token is minted.
type IssuedSession struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
