package entity

// AuthUser es el usuario autenticado por el proveedor (Supabase Auth).
type AuthUser struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Role        string         `json:"role,omitempty"` // rol de Postgres: authenticated, service_role
	AccessToken string         `json:"-"`
	Metadata    map[string]any `json:"user_metadata,omitempty"`
}

// MetadataString devuelve un valor de user_metadata como texto.
func (u AuthUser) MetadataString(key string) string {
	if u.Metadata == nil {
		return ""
	}
	if s, ok := u.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// Session es el resultado de intercambiar un código de autorización.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         AuthUser `json:"user"`
}
