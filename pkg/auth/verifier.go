package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/restaurant-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodRS256

// Verifier validates provider-issued ID tokens.
type Verifier struct {
	keys      KeySource
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

func NewVerifier(cfg config.IdentityConfig, keys KeySource) (*Verifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("identity project id is required")
	}
	if keys == nil {
		return nil, errors.New("key source is required")
	}
	return &Verifier{
		keys:      keys,
		issuer:    cfg.Issuer(),
		audience:  cfg.ProjectID,
		clockSkew: cfg.ClockSkew,
		now:       time.Now,
	}, nil
}

// Verify checks signature, issuer, audience, expiry and subject, and returns
// the caller identity.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token missing kid")
			}
			return v.keys.Key(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, errors.New("token subject is empty")
	}
	return Identity{
		UID:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}
