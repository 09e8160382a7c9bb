package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-123",
		"email": "ana@example.com",
		"role":  "authenticated",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{
			"full_name":         "Ana Pérez",
			"registration_type": "profesional",
		},
	}
}

func TestVerifier_Valid(t *testing.T) {
	v := NewVerifier(testSecret)
	tok := signToken(t, testSecret, validClaims())

	user, err := v.Verify(tok)

	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "profesional", user.MetadataString("registration_type"))
	assert.Equal(t, tok, user.AccessToken)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(testSecret)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongAud := validClaims()
	wrongAud["aud"] = "anon"

	noSub := validClaims()
	delete(noSub, "sub")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"expired", signToken(t, testSecret, expired), ErrExpiredToken},
		{"wrong secret", signToken(t, "another-secret-another-secret-0000", validClaims()), ErrInvalidToken},
		{"wrong audience", signToken(t, testSecret, wrongAud), ErrInvalidToken},
		{"no subject", signToken(t, testSecret, noSub), ErrInvalidToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifier_NotConfigured(t *testing.T) {
	_, err := NewVerifier("").Verify("abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSessionResolver_Sources(t *testing.T) {
	v := NewVerifier(testSecret)
	r := NewSessionResolver(v, "")
	tok := signToken(t, testSecret, validClaims())

	sessJSON, _ := json.Marshal(map[string]string{"access_token": tok})
	b64 := "base64-" + base64.RawURLEncoding.EncodeToString(sessJSON)

	t.Run("raw cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tok})
		user, err := r.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
	})

	t.Run("base64 cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: b64})
		user, err := r.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
	})

	t.Run("chunked cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		half := len(b64) / 2
		req.AddCookie(&http.Cookie{Name: DefaultCookieName + ".1", Value: b64[half:]})
		req.AddCookie(&http.Cookie{Name: DefaultCookieName + ".0", Value: b64[:half]})
		user, err := r.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
	})

	t.Run("bearer fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		user, err := r.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
	})

	t.Run("bad cookie falls back to bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "garbage"})
		req.Header.Set("Authorization", "bearer "+tok)
		user, err := r.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
	})

	t.Run("nothing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := r.Resolve(req)
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestEncodeSessionCookie_RoundTrip(t *testing.T) {
	value, err := EncodeSessionCookie(&entity.Session{AccessToken: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", decodeCookieValue(value))
}

func TestGoTrueClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		body, _ := io.ReadAll(r.Body)
		var in pkceRequest
		require.NoError(t, json.Unmarshal(body, &in))
		assert.Equal(t, "code-1", in.AuthCode)
		assert.Equal(t, "verifier-1", in.CodeVerifier)

		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,
			"user":{"id":"u1","email":"a@b.mx","user_metadata":{"registration_type":"profesional"}}}`))
	}))
	defer srv.Close()

	c := NewGoTrueClient(srv.URL+"/", "anon")
	sess, err := c.ExchangeCode(context.Background(), "code-1", "verifier-1")

	require.NoError(t, err)
	assert.Equal(t, "at", sess.AccessToken)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, "profesional", sess.User.MetadataString("registration_type"))
}

func TestGoTrueClient_PKCEError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"error_code":"bad_code_verifier","msg":"code challenge does not match previously saved code verifier"}`))
	}))
	defer srv.Close()

	_, err := NewGoTrueClient(srv.URL, "anon").ExchangeCode(context.Background(), "c", "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsPKCEError())
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestGoTrueClient_VerifyEmailToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/verify", r.URL.Path)
		var in verifyRequest
		json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "email", in.Type)
		assert.Equal(t, "hash-1", in.TokenHash)
		w.Write([]byte(`{"access_token":"at2","user":{"id":"u2","email":"c@d.mx"}}`))
	}))
	defer srv.Close()

	sess, err := NewGoTrueClient(srv.URL, "anon").VerifyEmailToken(context.Background(), "hash-1")

	require.NoError(t, err)
	assert.Equal(t, "u2", sess.User.ID)
}
