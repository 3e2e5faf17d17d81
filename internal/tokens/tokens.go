package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrInvalidTokenType = errors.New("unexpected token type")
)

// AccessClaims carry the permission snapshot computed at issuance time.
// The set is never refreshed mid-session; rotation re-derives it.
type AccessClaims struct {
	Username    string   `json:"username,omitempty"`
	Permissions []string `json:"permissions"`
	TokenType   string   `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func SignAccess(secret []byte, userID, username string, permissions []string, exp time.Time) (string, error) {
	claims := AccessClaims{
		Username:    username,
		Permissions: permissions,
		TokenType:   TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SignRefresh(secret []byte, userID string, exp time.Time) (string, error) {
	claims := RefreshClaims{
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseAccess(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrInvalidTokenType
	}
	return &claims, nil
}

func ParseRefresh(tokenStr string, secret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrInvalidTokenType
	}
	return &claims, nil
}

// SignedClaims decodes a token's registered claims checking only the
// signature, not the lifetime. Logout needs the subject and original
// expiry even for tokens that have already expired.
func SignedClaims(tokenStr string, secret []byte) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ExpiryMillis is the token's expiry in epoch milliseconds, signature
// verified but lifetime ignored.
func ExpiryMillis(tokenStr string, secret []byte) (int64, error) {
	claims, err := SignedClaims(tokenStr, secret)
	if err != nil {
		return 0, err
	}
	if claims.ExpiresAt == nil {
		return 0, ErrInvalidToken
	}
	return claims.ExpiresAt.Time.UnixMilli(), nil
}
