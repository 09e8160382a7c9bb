package middleware

import (
	"context"
	"net/http"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type ctxKey struct{}

type sessionResolver interface {
	Resolve(r *http.Request) (entity.AuthUser, error)
}

// Session resuelve el usuario de la petición y lo deja en el contexto.
// Las peticiones sin sesión continúan; cada handler decide si la exige.
func Session(resolver sessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolver.Resolve(r); err == nil && user.ID != "" {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user entity.AuthUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func UserFromContext(ctx context.Context) (entity.AuthUser, bool) {
	user, ok := ctx.Value(ctxKey{}).(entity.AuthUser)
	return user, ok
}
