package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"code_arena/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	require.True(t, CheckPasswordHash("password123", hash))
	require.False(t, CheckPasswordHash("password124", hash))
	require.False(t, CheckPasswordHash("password123", "not-a-hash"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, DefaultBcryptCost, cost)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	user := &model.User{ID: "u-1", Email: "a@example.com", Username: "alice"}

	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	var got *model.AuthUser
	h := issuer.Verifier()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		require.NoError(t, err)
		got, err = AuthUserFromClaims(claims)
		require.NoError(t, err)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, &model.AuthUser{UserID: "u-1", Email: "a@example.com", Username: "alice"}, got)
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	token, err := NewTokenIssuer([]byte("other"), time.Hour).GenerateToken(&model.User{ID: "u-1"})
	require.NoError(t, err)

	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	var verifyErr error
	h := issuer.Verifier()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, verifyErr = jwtauth.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Error(t, verifyErr)
}

func TestAuthUserFromClaimsMissingID(t *testing.T) {
	_, err := AuthUserFromClaims(jwt.MapClaims{"email": "a@example.com"})
	require.Error(t, err)
}
