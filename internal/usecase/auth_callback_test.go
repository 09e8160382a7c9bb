package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type callbackFixture struct {
	auth     *MockAuthProvider
	profiles *MockProfileRepository
	pros     *MockProfessionalRepository
	uc       *AuthCallbackUseCase
}

func newCallbackFixture() *callbackFixture {
	f := &callbackFixture{
		auth:     new(MockAuthProvider),
		profiles: new(MockProfileRepository),
		pros:     new(MockProfessionalRepository),
	}
	f.uc = NewAuthCallbackUseCase(f.auth, f.profiles, f.pros, nil)
	f.uc.Now = fixedClock
	return f
}

func sessionFor(user entity.AuthUser) *entity.Session {
	return &entity.Session{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600, User: user}
}

func TestAuthCallback_NoCode(t *testing.T) {
	f := newCallbackFixture()

	out := f.uc.Execute(context.Background(), CallbackInput{})

	assert.Equal(t, "/login?error=no_code_provided", out.Redirect)
	assert.Nil(t, out.Session)
}

func TestAuthCallback_ExistingClientGoesToDashboard(t *testing.T) {
	f := newCallbackFixture()
	user := entity.AuthUser{ID: "u1", Email: "ana@gmail.com"}
	f.auth.On("ExchangeCode", mock.Anything, "code-1", "ver").Return(sessionFor(user), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u1").Return(&entity.Profile{UserID: "u1", Role: entity.RoleClient}, nil)

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "code-1", CodeVerifier: "ver"})

	assert.Equal(t, DashboardClient, out.Redirect)
	require.NotNil(t, out.Session)
	assert.Equal(t, "at", out.Session.AccessToken)
}

func TestAuthCallback_HonorsSafeNext(t *testing.T) {
	f := newCallbackFixture()
	user := entity.AuthUser{ID: "u1"}
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(sessionFor(user), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u1").Return(&entity.Profile{Role: entity.RoleProfesional}, nil)

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c", Next: "/dashboard/client/leads/1"})
	assert.Equal(t, "/dashboard/client/leads/1", out.Redirect)

	out = f.uc.Execute(context.Background(), CallbackInput{Code: "c", Next: "//evil.com"})
	assert.Equal(t, DashboardProfessional, out.Redirect)
}

func TestAuthCallback_ExchangeErrorRedirectsToLogin(t *testing.T) {
	f := newCallbackFixture()
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("invalid grant"))

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c"})

	assert.Equal(t, "/login?error=auth_callback_error&details=invalid+grant", out.Redirect)
	f.auth.AssertNotCalled(t, "VerifyEmailToken", mock.Anything, mock.Anything)
}

func TestAuthCallback_PKCEFallsBackToEmailVerification(t *testing.T) {
	f := newCallbackFixture()
	user := entity.AuthUser{ID: "u2", Email: "luis@gmail.com"}
	f.auth.On("ExchangeCode", mock.Anything, "hash", "").Return(nil, &pkceTestError{pkce: true})
	f.auth.On("VerifyEmailToken", mock.Anything, "hash").Return(sessionFor(user), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u2").Return(&entity.Profile{Role: entity.RoleClient}, nil)

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "hash"})

	assert.Equal(t, DashboardClient, out.Redirect)
	assert.NotNil(t, out.Session)
}

func TestAuthCallback_PKCEFallbackFails(t *testing.T) {
	f := newCallbackFixture()
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(nil, &pkceTestError{pkce: true})
	f.auth.On("VerifyEmailToken", mock.Anything, mock.Anything).Return(nil, errors.New("expired"))

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c"})

	assert.Equal(t, "/login?error=pkce_error&details=PKCE+Error%3A+expired", out.Redirect)
}

func TestAuthCallback_RegistersProfessional(t *testing.T) {
	f := newCallbackFixture()
	user := entity.AuthUser{
		ID:    "u3",
		Email: "luis@gmail.com",
		Metadata: map[string]any{
			"registration_type": "profesional",
			"full_name":         "Luis Pérez",
			"profession":        "Electricista",
			"experience_years":  float64(7),
			"areas_servicio":    []any{"Coyoacán", "Tlalpan"},
		},
	}
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(sessionFor(user), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u3").Return(nil, entity.ErrProfileNotFound)
	f.profiles.On("Create", mock.Anything, mock.MatchedBy(func(p *entity.Profile) bool {
		return p.Role == entity.RoleProfesional && p.FullName == "Luis Pérez" && p.Membership == entity.MembershipFree
	})).Return(nil)
	f.pros.On("Create", mock.Anything, mock.MatchedBy(func(p *entity.Professional) bool {
		return p.Profession == "Electricista" &&
			p.ExperienceYears == 7 &&
			p.DescripcionPerfil == defaultDescription &&
			len(p.AreasServicio) == 2 &&
			p.Specialties[0] == defaultProfession
	})).Return(nil)

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c"})

	assert.Equal(t, DashboardProfessional, out.Redirect)
	f.pros.AssertExpectations(t)
}

func TestAuthCallback_ProfessionalInsertFailureDeletesProfile(t *testing.T) {
	f := newCallbackFixture()
	user := entity.AuthUser{ID: "u4", Email: "x@y.com"}
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(sessionFor(user), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u4").Return(nil, entity.ErrProfileNotFound)
	f.profiles.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profiles.On("Delete", mock.Anything, "u4").Return(nil)
	f.pros.On("Create", mock.Anything, mock.Anything).Return(errors.New("fk violation"))

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c", CookieHeader: "registration_type=profesional"})

	assert.Contains(t, out.Redirect, "/login?error=profile_creation_error")
	assert.NotNil(t, out.Session)
	f.profiles.AssertCalled(t, "Delete", mock.Anything, "u4")
}

func TestAuthCallback_ProfileCheckError(t *testing.T) {
	f := newCallbackFixture()
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(sessionFor(entity.AuthUser{ID: "u5"}), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u5").Return(nil, errors.New("timeout"))

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c"})

	assert.Equal(t, "/login?error=profile_check_error&details=timeout", out.Redirect)
}

func TestAuthCallback_AutoFixesClientRegisteredAsProfessional(t *testing.T) {
	f := newCallbackFixture()
	user := entity.AuthUser{ID: "u6", Metadata: map[string]any{"registration_type": "profesional"}}
	f.auth.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return(sessionFor(user), nil)
	f.profiles.On("FindByUserID", mock.Anything, "u6").Return(&entity.Profile{Role: entity.RoleClient}, nil)
	f.profiles.On("UpdateRole", mock.Anything, "u6", entity.RoleProfesional).Return(nil)
	f.pros.On("FindByUserID", mock.Anything, "u6").Return(nil, entity.ErrProfileNotFound)
	f.pros.On("Create", mock.Anything, mock.Anything).Return(nil)

	out := f.uc.Execute(context.Background(), CallbackInput{Code: "c"})

	assert.Equal(t, DashboardProfessional, out.Redirect)
	f.pros.AssertExpectations(t)
}

func TestSafeNextPath(t *testing.T) {
	assert.Equal(t, "/a/b?x=1", SafeNextPath("/a/b?x=1"))
	assert.Empty(t, SafeNextPath("https://evil.com"))
	assert.Empty(t, SafeNextPath("//evil.com"))
	assert.Empty(t, SafeNextPath(`/\evil.com`))
	assert.Empty(t, SafeNextPath(""))
}
