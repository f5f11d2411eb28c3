// Package auth verifies the bearer tokens issued by the portal's Auth Service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the portal's access token claims.
type Claims struct {
	Email string           `json:"email,omitempty"`
	Role  model.SystemRole `json:"role"`
	jwt.RegisteredClaims
}

// Config holds verifier settings.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
}

// Verifier checks HMAC-signed access tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
	cfg    Config
}

// NewVerifier creates a token verifier.
func NewVerifier(cfg Config) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
		cfg:    cfg,
	}
}

// Verify parses tokenString and returns the caller it identifies. The raw
// token is kept on the caller so adapters can forward it upstream.
func (v *Verifier) Verify(tokenString string) (model.Caller, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return model.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return model.Caller{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	role := claims.Role
	if !role.IsValid() {
		role = model.SystemRoleStudent
	}

	return model.Caller{
		UserID: userID,
		Email:  claims.Email,
		Role:   role,
		Token:  tokenString,
	}, nil
}

// Issue signs a token for caller. The Auth Service owns issuance in
// production; this is used by tooling and tests.
func (v *Verifier) Issue(caller model.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: caller.Email,
		Role:  caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID.String(),
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
