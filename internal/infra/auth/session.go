package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const DefaultCookieName = "sb-access-token"

// base64Prefix marca el formato de cookie de los clientes SSR de Supabase.
const base64Prefix = "base64-"

type tokenVerifier interface {
	Verify(token string) (entity.AuthUser, error)
}

// SessionResolver obtiene el usuario de la petición: cookie de sesión primero, luego Bearer.
type SessionResolver struct {
	verifier   tokenVerifier
	cookieName string
}

func NewSessionResolver(v tokenVerifier, cookieName string) *SessionResolver {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &SessionResolver{verifier: v, cookieName: cookieName}
}

func (s *SessionResolver) CookieName() string { return s.cookieName }

func (s *SessionResolver) Resolve(r *http.Request) (entity.AuthUser, error) {
	if token := s.cookieToken(r); token != "" {
		user, err := s.verifier.Verify(token)
		if err == nil {
			return user, nil
		}
		// Cookie vencida o corrupta: se intenta con el header.
		if bearer := bearerToken(r); bearer != "" {
			return s.verifier.Verify(bearer)
		}
		return entity.AuthUser{}, err
	}

	if bearer := bearerToken(r); bearer != "" {
		return s.verifier.Verify(bearer)
	}
	return entity.AuthUser{}, ErrMissingToken
}

// cookieToken admite la cookie completa o dividida en fragmentos (<name>.0, <name>.1, ...).
func (s *SessionResolver) cookieToken(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return decodeCookieValue(c.Value)
	}

	type chunk struct {
		idx   int
		value string
	}
	var chunks []chunk
	prefix := s.cookieName + "."
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(c.Name, prefix))
		if err != nil {
			continue
		}
		chunks = append(chunks, chunk{idx, c.Value})
	}
	if len(chunks) == 0 {
		return ""
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].idx < chunks[j].idx })

	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.value)
	}
	return decodeCookieValue(b.String())
}

// decodeCookieValue acepta un JWT crudo o "base64-<json de sesión>".
func decodeCookieValue(v string) string {
	if !strings.HasPrefix(v, base64Prefix) {
		return v
	}

	raw := strings.TrimPrefix(v, base64Prefix)
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return ""
		}
	}

	var sess struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(decoded, &sess); err != nil {
		return ""
	}
	return sess.AccessToken
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// EncodeSessionCookie produce el valor "base64-<json>" que guarda el callback.
func EncodeSessionCookie(sess *entity.Session) (string, error) {
	body, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	return base64Prefix + base64.RawURLEncoding.EncodeToString(body), nil
}
