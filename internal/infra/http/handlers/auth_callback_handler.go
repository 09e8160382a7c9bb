package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/infra/auth"
	"github.com/sumeeapp/sumee-api/internal/usecase"
)

// maxCookieChunk es el tamaño por fragmento que usan los clientes SSR de Supabase.
const maxCookieChunk = 3180

type callbackExecutor interface {
	Execute(ctx context.Context, input usecase.CallbackInput) *usecase.CallbackOutput
}

type AuthCallbackHandler struct {
	Callback           callbackExecutor
	SiteURL            string
	SessionCookie      string
	CodeVerifierCookie string
	Secure             bool
	Logger             *zap.Logger
}

func NewAuthCallbackHandler(cb callbackExecutor, siteURL, sessionCookie, verifierCookie string, logger *zap.Logger) *AuthCallbackHandler {
	if sessionCookie == "" {
		sessionCookie = auth.DefaultCookieName
	}
	return &AuthCallbackHandler{
		Callback:           cb,
		SiteURL:            strings.TrimRight(siteURL, "/"),
		SessionCookie:      sessionCookie,
		CodeVerifierCookie: verifierCookie,
		Secure:             strings.HasPrefix(siteURL, "https://"),
		Logger:             orNop(logger),
	}
}

func (h *AuthCallbackHandler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	out := h.Callback.Execute(r.Context(), usecase.CallbackInput{
		Code:         q.Get("code"),
		Next:         q.Get("next"),
		CodeVerifier: h.codeVerifier(r),
		CookieHeader: r.Header.Get("Cookie"),
		Referer:      r.Header.Get("Referer"),
		Origin:       r.Header.Get("Origin"),
	})

	if out.Session != nil {
		value, err := auth.EncodeSessionCookie(out.Session)
		if err != nil {
			h.Logger.Error("❌ Error codificando la cookie de sesión", zap.Error(err))
		} else {
			h.setSessionCookie(w, r, value, out.Session.ExpiresIn)
		}
		h.clearCookie(w, h.CodeVerifierCookie)
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	http.Redirect(w, r, h.SiteURL+out.Redirect, http.StatusTemporaryRedirect)
}

func (h *AuthCallbackHandler) codeVerifier(r *http.Request) string {
	if h.CodeVerifierCookie == "" {
		return ""
	}
	c, err := r.Cookie(h.CodeVerifierCookie)
	if err != nil {
		return ""
	}
	// @supabase/ssr guarda el verifier como string JSON
	return strings.Trim(c.Value, `"`)
}

// setSessionCookie fragmenta la sesión en <name>.0, <name>.1, ... cuando no cabe en una cookie.
// Expira las cookies de una sesión anterior que el resolver leería en lugar de la nueva:
// la cookie completa cuando se escriben fragmentos, y los fragmentos que sobran.
func (h *AuthCallbackHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	hasWhole, chunks := h.existingSessionCookies(r)

	if len(value) <= maxCookieChunk {
		http.SetCookie(w, h.cookie(h.SessionCookie, value, maxAge))
		for _, idx := range chunks {
			h.clearCookie(w, h.chunkName(idx))
		}
		return
	}

	n := 0
	for ; len(value) > 0; n++ {
		size := min(maxCookieChunk, len(value))
		http.SetCookie(w, h.cookie(h.chunkName(n), value[:size], maxAge))
		value = value[size:]
	}

	if hasWhole {
		h.clearCookie(w, h.SessionCookie)
	}
	for _, idx := range chunks {
		if idx >= n {
			h.clearCookie(w, h.chunkName(idx))
		}
	}
}

// existingSessionCookies indica si la petición trae la cookie completa y qué fragmentos trae.
func (h *AuthCallbackHandler) existingSessionCookies(r *http.Request) (bool, []int) {
	var (
		whole  bool
		chunks []int
	)
	prefix := h.SessionCookie + "."
	for _, c := range r.Cookies() {
		if c.Name == h.SessionCookie {
			whole = true
			continue
		}
		if !strings.HasPrefix(c.Name, prefix) {
			continue
		}
		if idx, err := strconv.Atoi(strings.TrimPrefix(c.Name, prefix)); err == nil && idx >= 0 {
			chunks = append(chunks, idx)
		}
	}
	return whole, chunks
}

func (h *AuthCallbackHandler) chunkName(idx int) string {
	return h.SessionCookie + "." + strconv.Itoa(idx)
}

func (h *AuthCallbackHandler) clearCookie(w http.ResponseWriter, name string) {
	if name == "" {
		return
	}
	http.SetCookie(w, h.cookie(name, "", -1))
}

func (h *AuthCallbackHandler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
