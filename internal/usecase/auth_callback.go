package usecase

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const (
	DashboardProfessional = "/professional-dashboard"
	DashboardClient       = "/dashboard/client"
)

// Valores por defecto del registro profesional cuando la metadata no los trae.
const (
	defaultProfession      = "General"
	defaultDescription     = "Profesional verificado en Sumee App"
	defaultExperienceYears = 2
	defaultDisponibilidad  = "disponible"
)

// pkceError lo implementan los errores del proveedor de auth que indican un fallo del code verifier.
type pkceError interface {
	IsPKCEError() bool
}

type AuthCallbackUseCase struct {
	Auth          AuthProvider
	Profiles      entity.ProfileRepositoryInterface
	Professionals entity.ProfessionalRepositoryInterface
	Logger        *zap.Logger
	Now           func() time.Time
}

func NewAuthCallbackUseCase(
	authProvider AuthProvider,
	profiles entity.ProfileRepositoryInterface,
	professionals entity.ProfessionalRepositoryInterface,
	logger *zap.Logger,
) *AuthCallbackUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthCallbackUseCase{
		Auth:          authProvider,
		Profiles:      profiles,
		Professionals: professionals,
		Logger:        logger,
		Now:           time.Now,
	}
}

// Execute siempre devuelve una redirección; los errores viajan en el query string de /login.
func (uc *AuthCallbackUseCase) Execute(ctx context.Context, input CallbackInput) *CallbackOutput {
	if strings.TrimSpace(input.Code) == "" {
		uc.Logger.Warn("❌ Callback sin código")
		return &CallbackOutput{Redirect: loginError("no_code_provided", "")}
	}

	sess, err := uc.Auth.ExchangeCode(ctx, input.Code, input.CodeVerifier)
	if err != nil {
		var pe pkceError
		if !errors.As(err, &pe) || !pe.IsPKCEError() {
			uc.Logger.Error("❌ Error intercambiando código", zap.Error(err))
			return &CallbackOutput{Redirect: loginError("auth_callback_error", err.Error())}
		}

		uc.Logger.Warn("🔄 Error PKCE, intentando verificación por email", zap.Error(err))
		sess, err = uc.Auth.VerifyEmailToken(ctx, input.Code)
		if err != nil {
			uc.Logger.Error("❌ Verificación por email también falló", zap.Error(err))
			return &CallbackOutput{Redirect: loginError("pkce_error", "PKCE Error: "+err.Error())}
		}
	}

	user := sess.User
	log := uc.Logger.With(zap.String("user_id", user.ID))
	log.Info("👤 Usuario autenticado")

	role, errRedirect := uc.ensureProfile(ctx, user, RegistrationContext{
		User:         user,
		CookieHeader: input.CookieHeader,
		Referer:      input.Referer,
		Origin:       input.Origin,
	}, log)
	if errRedirect != "" {
		// La sesión se devuelve igual: el usuario quedó autenticado aunque falte el perfil.
		return &CallbackOutput{Redirect: errRedirect, Session: sess}
	}

	redirect := SafeNextPath(input.Next)
	if redirect == "" {
		redirect = DashboardFor(role)
	}
	return &CallbackOutput{Redirect: redirect, Session: sess}
}

// ensureProfile devuelve el rol final del usuario o, si falla, la redirección de error.
func (uc *AuthCallbackUseCase) ensureProfile(ctx context.Context, user entity.AuthUser, rc RegistrationContext, log *zap.Logger) (string, string) {
	profile, err := uc.Profiles.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		if profile.Role == entity.RoleClient && user.MetadataString("registration_type") == entity.RoleProfesional {
			log.Info("🔧 Perfil cliente con registro profesional, corrigiendo rol")
			if err := uc.AutoFixRole(ctx, user); err != nil {
				log.Error("❌ No se pudo corregir el rol", zap.Error(err))
				return profile.Role, ""
			}
			return entity.RoleProfesional, ""
		}
		return profile.Role, ""

	case errors.Is(err, entity.ErrProfileNotFound):
		decision := ClassifyRegistration(rc)
		log.Info("📝 Creando perfil", zap.String("role", decision.Role), zap.Strings("signals", decision.Signals))
		if err := uc.register(ctx, user, decision); err != nil {
			log.Error("❌ Error creando perfil", zap.Error(err))
			return "", loginError("profile_creation_error", err.Error())
		}
		return decision.Role, ""

	default:
		log.Error("❌ Error consultando perfil", zap.Error(err))
		return "", loginError("profile_check_error", err.Error())
	}
}

// register crea el perfil y, si aplica, el registro profesional como una transacción compensable:
// si falla el segundo insert se borra el perfil para que el siguiente callback reintente limpio.
func (uc *AuthCallbackUseCase) register(ctx context.Context, user entity.AuthUser, decision RoleDecision) error {
	now := uc.Now().UTC()
	profile := &entity.Profile{
		UserID:     user.ID,
		Role:       decision.Role,
		FullName:   displayName(user),
		Email:      user.Email,
		Membership: entity.MembershipFree,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx := NewTransaction(uc.Logger)
	tx.AddOperation("create_profile", func(ctx context.Context) error {
		return uc.Profiles.Create(ctx, profile)
	})
	tx.AddCompensation("delete_profile", func(ctx context.Context) error {
		return uc.Profiles.Delete(ctx, user.ID)
	})

	if decision.IsProfessional() {
		tx.AddOperation("create_professional", func(ctx context.Context) error {
			return uc.Professionals.Create(ctx, newProfessional(user, now))
		})
		tx.AddCompensation("create_professional", nil)
	}

	return tx.Execute(ctx)
}

// AutoFixRole promueve a profesional un perfil creado como cliente y crea su registro profesional si falta.
func (uc *AuthCallbackUseCase) AutoFixRole(ctx context.Context, user entity.AuthUser) error {
	if err := uc.Profiles.UpdateRole(ctx, user.ID, entity.RoleProfesional); err != nil {
		return err
	}

	_, err := uc.Professionals.FindByUserID(ctx, user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, entity.ErrProfileNotFound) {
		return err
	}
	return uc.Professionals.Create(ctx, newProfessional(user, uc.Now().UTC()))
}

func newProfessional(user entity.AuthUser, now time.Time) *entity.Professional {
	p := &entity.Professional{
		UserID:            user.ID,
		Profession:        orDefault(user.MetadataString("profession"), defaultProfession),
		Whatsapp:          user.MetadataString("whatsapp"),
		DescripcionPerfil: orDefault(user.MetadataString("descripcion_perfil"), defaultDescription),
		Specialties:       metadataStrings(user.Metadata, "specialties"),
		ExperienceYears:   metadataInt(user.Metadata, "experience_years", defaultExperienceYears),
		Disponibilidad:    defaultDisponibilidad,
		AreasServicio:     metadataStrings(user.Metadata, "areas_servicio"),
		Activo:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if len(p.Specialties) == 0 {
		p.Specialties = []string{defaultProfession}
	}
	if p.AreasServicio == nil {
		p.AreasServicio = []string{}
	}
	return p
}

func displayName(user entity.AuthUser) string {
	if name := strings.TrimSpace(user.MetadataString("full_name")); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(user.Email, "@"); local != "" {
		return local
	}
	return "Usuario"
}

// DashboardFor devuelve el panel de inicio de cada rol.
func DashboardFor(role string) string {
	if role == entity.RoleProfesional {
		return DashboardProfessional
	}
	return DashboardClient
}

// SafeNextPath acepta solo rutas locales ("/algo"), nunca URLs absolutas ni "//host".
func SafeNextPath(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}

func loginError(code, details string) string {
	redirect := "/login?error=" + url.QueryEscape(code)
	if details != "" {
		redirect += "&details=" + url.QueryEscape(details)
	}
	return redirect
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func metadataStrings(md map[string]any, key string) []string {
	raw, ok := md[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func metadataInt(md map[string]any, key string, def int) int {
	switch v := md[key].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}
