package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndCompareRoundTrip(t *testing.T) {
	h := NewBcryptHasher()
	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, h.Compare(hash, "correct horse battery staple"))
	assert.Error(t, h.Compare(hash, "wrong password"))
}

func TestTokenIssuer_IssueAndParseRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "HS256")

	token, err := issuer.Issue("user-1", true)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", "HS256")
	token, err := issuer.Issue("user-1", false)
	require.NoError(t, err)

	other := NewTokenIssuer("secret-b", "HS256")
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "HS256")
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(issuer.method, claims)
	signed, err := token.SignedString(issuer.secret)
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_UnrecognizedAlgorithmFallsBackToHS256(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "not-a-real-algorithm")
	assert.Equal(t, jwt.SigningMethodHS256, issuer.method)
}

func TestExtractAPIKey_HeaderTakesPriorityOverQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?api_key=from-query", nil)
	r.Header.Set("X-API-Key", "from-header")

	key, ok := ExtractAPIKey(r)
	assert.True(t, ok)
	assert.Equal(t, "from-header", key)
}

func TestExtractAPIKey_BearerAuthorizationHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer sk-abc123")

	key, ok := ExtractAPIKey(r)
	assert.True(t, ok)
	assert.Equal(t, "sk-abc123", key)
}

func TestExtractAPIKey_QueryParamFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?api_key=sk-xyz", nil)
	key, ok := ExtractAPIKey(r)
	assert.True(t, ok)
	assert.Equal(t, "sk-xyz", key)
}

func TestExtractAPIKey_MissingEverywhere(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := ExtractAPIKey(r)
	assert.False(t, ok)
}
