package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way token verification can fail: bad
// signature, wrong signing method, expired, or malformed.
var ErrInvalidToken = errors.New("invalid token")

// TokenTTL is how long an issued bearer token is valid for.
const TokenTTL = 24 * time.Hour

// Claims is the payload carried by the bearer token issued at login.
type Claims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies the bearer tokens handed out at login,
// opaque to callers beyond "present this on every authenticated call".
// Config-driven signing method so APP__ALGORITHM (default HS256) picks
// the HMAC variant without a code change.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenIssuer builds a TokenIssuer for the given secret and
// algorithm name (e.g. "HS256"). Falls back to HS256 if algorithm is
// unrecognized.
func NewTokenIssuer(secret, algorithm string) *TokenIssuer {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok || method == nil {
		method = jwt.SigningMethodHS256
	}
	return &TokenIssuer{secret: []byte(secret), method: method}
}

// Issue mints a signed bearer token for the given user.
func (t *TokenIssuer) Issue(userID string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(t.method, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a bearer token and returns its claims.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
