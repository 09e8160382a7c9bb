package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type stubResolver struct {
	user entity.AuthUser
	err  error
}

func (s stubResolver) Resolve(*http.Request) (entity.AuthUser, error) {
	return s.user, s.err
}

func TestSession_PutsUserInContext(t *testing.T) {
	var got entity.AuthUser
	var found bool
	h := Session(stubResolver{user: entity.AuthUser{ID: "u-1", Email: "a@b.mx"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, found = UserFromContext(r.Context())
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, found)
	assert.Equal(t, "u-1", got.ID)
}

func TestSession_AnonymousContinues(t *testing.T) {
	called := false
	h := Session(stubResolver{err: errors.New("sin token")})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, found := UserFromContext(r.Context())
			assert.False(t, found)
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/leads/{id}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leads/abc", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/leads/{id}", "418"))

	assert.Equal(t, before+1, after)
}

func TestDomainMetrics_Counters(t *testing.T) {
	m := DomainMetrics{}

	before := testutil.ToFloat64(leadsAccepted.WithLabelValues("rpc"))
	m.LeadAccepted("rpc")
	assert.Equal(t, before+1, testutil.ToFloat64(leadsAccepted.WithLabelValues("rpc")))

	conflicts := testutil.ToFloat64(leadAcceptConflicts)
	m.LeadAcceptConflict()
	assert.Equal(t, conflicts+1, testutil.ToFloat64(leadAcceptConflicts))

	penalties := testutil.ToFloat64(deadlinePenalties)
	m.DeadlinePenalty()
	assert.Equal(t, penalties+1, testutil.ToFloat64(deadlinePenalties))

	errs := testutil.ToFloat64(integrationErrors.WithLabelValues("gemini"))
	m.IntegrationError("gemini")
	assert.Equal(t, errs+1, testutil.ToFloat64(integrationErrors.WithLabelValues("gemini")))
}
