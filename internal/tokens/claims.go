package tokens

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

type AccessClaims struct {
	UserID     uint   `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Lastname   string `json:"lastname"`
	Phone      string `json:"phone"`
	Postalcode string `json:"postalcode"`
	Direction  string `json:"direction"`
	IsAdmin    bool   `json:"isAdmin"`
	Type       string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID uint   `json:"userId"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

func parse(tokenStr string, claims jwt.Claims, secret []byte, opts ...jwt.ParserOption) error {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrExpiredToken, err)
	}
	if !tkn.Valid {
		return ErrInvalidOrExpiredToken
	}
	return nil
}

func AccessClaimsFromToken(tokenStr string, accessSecret []byte, opts ...jwt.ParserOption) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(tokenStr, &claims, accessSecret, opts...); err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidOrExpiredToken)
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte, opts ...jwt.ParserOption) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(tokenStr, &claims, refreshSecret, opts...); err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh || claims.UserID == 0 || claims.ID == "" {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidOrExpiredToken)
	}
	return &claims, nil
}
