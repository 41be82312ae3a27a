package security

import (
	"errors"
	"net/http"
	"time"

	"code_arena/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	TokenAuth *jwtauth.JWTAuth
	exp       time.Duration
}

func NewTokenIssuer(key []byte, exp time.Duration) *TokenIssuer {
	return &TokenIssuer{
		TokenAuth: jwtauth.New("HS256", key, nil),
		exp:       exp,
	}
}

func (ti *TokenIssuer) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId":   user.ID,
		"email":    user.Email,
		"username": user.Username,
		"exp":      now.Add(ti.exp).Unix(),
		"iat":      now.Unix(),
	}
	_, tokenString, err := ti.TokenAuth.Encode(claims)
	return tokenString, err
}

// Verifier looks for a token in the Authorization header and stores the
// verification result in the request context.
func (ti *TokenIssuer) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(ti.TokenAuth)
}

// AuthUserFromClaims extracts the token identity from verified claims.
func AuthUserFromClaims(claims jwt.MapClaims) (*model.AuthUser, error) {
	id, ok := claims["userId"].(string)
	if !ok || id == "" {
		return nil, errors.New("userId claim is missing or not a string")
	}
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	return &model.AuthUser{UserID: id, Email: email, Username: username}, nil
}
