package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	CookieName = "booktracker_token"
	TokenTTL   = 24 * time.Hour
)

type contextKey int

const (
	userNameKey contextKey = iota + 1
)

type Claims struct {
	Profile struct {
		Username string `json:"username"`
	} `json:"profile"`
	jwt.RegisteredClaims
}

// NewToken issues a signed HS256 session token for username.
func NewToken(username string, key []byte, ttl time.Duration) (string, time.Time, error) {
	expirationTime := time.Now().Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}
	claims.Profile.Username = username

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

func ParseToken(tokenStr string, key []byte) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

func SetAuthContext(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userNameKey, username)
}

func GetUserName(ctx context.Context) (string, error) {
	username, ok := ctx.Value(userNameKey).(string)
	if !ok || username == "" {
		return "", errors.New("no authenticated user in context")
	}
	return username, nil
}
