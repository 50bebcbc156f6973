package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tolerancia de reloj entre nodos al validar exp/iat.
const leeway = 30 * time.Second

var (
	ErrEmptySecret  = errors.New("jwt: secret vacío")
	ErrInvalidToken = errors.New("jwt: token inválido")
	ErrExpiredToken = errors.New("jwt: token expirado")
)

// Principal identidad autenticada que viaja en el token: usuario, emisor (company) y rol.
type Principal struct {
	UserID    string
	CompanyID string
	Role      string
}

type claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id"`
	Role      string `json:"role,omitempty"`
}

// Generate firma un token HS256 para p con vigencia ttl. El usuario va en "sub".
func Generate(secret, issuer string, p Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	if p.UserID == "" || p.CompanyID == "" {
		return "", fmt.Errorf("jwt: usuario y emisor son obligatorios")
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CompanyID: p.CompanyID,
		Role:      p.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Parse valida firma, algoritmo y expiración y devuelve el Principal.
// Un token sin rol es válido aquí; la autorización lo rechaza después.
func Parse(secret, tokenString string) (*Principal, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	var c claims
	_, err := parser.ParseWithClaims(tokenString, &c, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" || c.CompanyID == "" {
		return nil, fmt.Errorf("%w: faltan sub o company_id", ErrInvalidToken)
	}
	return &Principal{UserID: c.Subject, CompanyID: c.CompanyID, Role: c.Role}, nil
}
