package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the subset of the provider's ID token we rely on. Subject
// carries the stable user id.
type IdentityClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	AuthTime      int64  `json:"auth_time,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified caller extracted from a token.
type Identity struct {
	UID   string
	Email string
	Name  string
}
