package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

// APIError es un error devuelto por Supabase Auth (GoTrue).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase auth %d %s: %s", e.Status, e.Code, e.Message)
}

// IsPKCEError indica que falló el code verifier (típico cuando el enlace se abre en otro navegador).
func (e *APIError) IsPKCEError() bool {
	msg := strings.ToLower(e.Code + " " + e.Message)
	return strings.Contains(msg, "code verifier") ||
		strings.Contains(msg, "code_verifier") ||
		strings.Contains(msg, "flow_state")
}

// GoTrueClient habla con los endpoints REST de Supabase Auth.
type GoTrueClient struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func NewGoTrueClient(supabaseURL, anonKey string) *GoTrueClient {
	return &GoTrueClient{
		baseURL: strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		anonKey: anonKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type pkceRequest struct {
	AuthCode     string `json:"auth_code"`
	CodeVerifier string `json:"code_verifier"`
}

type verifyRequest struct {
	Type      string `json:"type"`
	TokenHash string `json:"token_hash"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		Role         string         `json:"role"`
		UserMetadata map[string]any `json:"user_metadata"`
	} `json:"user"`
}

type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode intercambia un código OAuth/PKCE por una sesión.
func (c *GoTrueClient) ExchangeCode(ctx context.Context, code, verifier string) (*entity.Session, error) {
	return c.post(ctx, "/token?grant_type=pkce", pkceRequest{AuthCode: code, CodeVerifier: verifier})
}

// VerifyEmailToken confirma un enlace de email usando el código como token_hash.
func (c *GoTrueClient) VerifyEmailToken(ctx context.Context, tokenHash string) (*entity.Session, error) {
	return c.post(ctx, "/verify", verifyRequest{Type: "email", TokenHash: tokenHash})
}

func (c *GoTrueClient) post(ctx context.Context, path string, payload any) (*entity.Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error request supabase auth: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(respBody, &er)
		apiErr := &APIError{Status: resp.StatusCode, Code: er.ErrorCode, Message: er.Msg}
		if apiErr.Code == "" {
			apiErr.Code = er.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = er.ErrorDescription
		}
		if apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return nil, apiErr
	}

	var sr sessionResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("error decode sesión: %w", err)
	}
	if sr.AccessToken == "" || sr.User.ID == "" {
		return nil, &APIError{Status: resp.StatusCode, Code: "no_session", Message: "respuesta sin sesión"}
	}

	return &entity.Session{
		AccessToken:  sr.AccessToken,
		RefreshToken: sr.RefreshToken,
		ExpiresIn:    sr.ExpiresIn,
		User: entity.AuthUser{
			ID:          sr.User.ID,
			Email:       sr.User.Email,
			Role:        sr.User.Role,
			AccessToken: sr.AccessToken,
			Metadata:    sr.User.UserMetadata,
		},
	}, nil
}

func (c *GoTrueClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
}
