package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const DefaultAudience = "authenticated"

var (
	ErrMissingToken  = errors.New("token de acceso ausente")
	ErrInvalidToken  = errors.New("token de acceso inválido")
	ErrExpiredToken  = errors.New("token de acceso expirado")
	ErrNotConfigured = errors.New("SUPABASE_JWT_SECRET no configurado")
)

// supabaseClaims son los claims que emite Supabase Auth en el access token.
type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Verifier valida access tokens HS256 firmados con el secreto del proyecto.
type Verifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		audience: DefaultAudience,
		now:      time.Now,
	}
}

func (v *Verifier) Verify(token string) (entity.AuthUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entity.AuthUser{}, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return entity.AuthUser{}, ErrNotConfigured
	}

	var claims supabaseClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return entity.AuthUser{}, mapJWTError(err)
	}

	if claims.Subject == "" {
		return entity.AuthUser{}, ErrInvalidToken
	}

	return entity.AuthUser{
		ID:          claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		AccessToken: token,
		Metadata:    claims.UserMetadata,
	}, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpiredToken
	}
	return ErrInvalidToken
}
