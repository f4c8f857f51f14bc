package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ViewerTokenService emite y valida los tokens de lectura del dashboard.
type ViewerTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type ViewerClaims struct {
	Viewer    string `json:"viewer"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewViewerTokenService(secret string, ttl time.Duration) *ViewerTokenService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &ViewerTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "decision-ai",
	}
}

// Issue firma un token para el lector indicado.
func (s *ViewerTokenService) Issue(viewer string) (string, time.Time, error) {
	if len(s.secret) == 0 || strings.TrimSpace(viewer) == "" {
		return "", time.Time{}, ErrJWTInvalid
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := ViewerClaims{
		Viewer:    viewer,
		TokenType: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   viewer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *ViewerTokenService) Parse(tokenString string) (ViewerClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return ViewerClaims{}, ErrJWTInvalid
	}
	var claims ViewerClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ViewerClaims{}, ErrJWTExpired
		}
		return ViewerClaims{}, ErrJWTInvalid
	}
	if claims.TokenType != "viewer" || claims.Issuer != s.issuer {
		return ViewerClaims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(claims.Viewer) == "" || claims.Subject != claims.Viewer {
		return ViewerClaims{}, ErrJWTInvalid
	}
	return claims, nil
}
