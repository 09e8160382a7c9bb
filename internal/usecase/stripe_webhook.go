package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/stripe"
)

type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (*stripe.WebhookEvent, error)
}

// StripeWebhookUseCase mantiene profiles.membership sincronizado con Stripe.
type StripeWebhookUseCase struct {
	Verifier WebhookVerifier
	Profiles entity.ProfileRepositoryInterface
	Logger   *zap.Logger
}

func NewStripeWebhookUseCase(verifier WebhookVerifier, profiles entity.ProfileRepositoryInterface, logger *zap.Logger) *StripeWebhookUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeWebhookUseCase{Verifier: verifier, Profiles: profiles, Logger: logger}
}

func (uc *StripeWebhookUseCase) Execute(ctx context.Context, payload []byte, signature string) error {
	event, err := uc.Verifier.ParseWebhook(payload, signature)
	if err != nil {
		uc.Logger.Warn("🚫 Webhook de Stripe rechazado", zap.Error(err))
		return domainErr(CodeValidation, "Webhook Error: "+err.Error())
	}

	log := uc.Logger.With(zap.String("event_id", event.ID), zap.String("type", event.Type))
	log.Info("📨 Webhook de Stripe recibido")

	switch event.Type {
	case "checkout.session.completed":
		userID := event.Metadata["supabaseUserId"]
		if userID == "" {
			log.Warn("⚠️ checkout.session.completed sin supabaseUserId")
			return nil
		}
		if err := uc.Profiles.UpdateMembership(ctx, userID, entity.MembershipPremium); err != nil {
			if errors.Is(err, entity.ErrProfileNotFound) {
				log.Warn("⚠️ Perfil no encontrado para checkout", zap.String("user_id", userID))
				return nil
			}
			return technicalErr(CodeDatabase, "Error updating Supabase", err)
		}
		log.Info("💎 Membresía premium activada", zap.String("user_id", userID))

	case "customer.subscription.updated", "customer.subscription.deleted":
		return uc.syncSubscription(ctx, event, log)

	default:
		log.Debug("Evento no manejado")
	}
	return nil
}

func (uc *StripeWebhookUseCase) syncSubscription(ctx context.Context, event *stripe.WebhookEvent, log *zap.Logger) error {
	if event.CustomerID == "" {
		return nil
	}

	profile, err := uc.Profiles.FindByStripeCustomerID(ctx, event.CustomerID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			log.Warn("⚠️ No hay perfil para el customer", zap.String("customer_id", event.CustomerID))
			return nil
		}
		return technicalErr(CodeDatabase, "Error updating Supabase", err)
	}

	membership := MembershipForSubscription(event.SubscriptionStatus)
	if event.Type == "customer.subscription.deleted" {
		membership = entity.MembershipFree
	}
	if profile.Membership == membership {
		return nil
	}

	if err := uc.Profiles.UpdateMembership(ctx, profile.UserID, membership); err != nil {
		return technicalErr(CodeDatabase, "Error updating Supabase", err)
	}
	log.Info("🔄 Membresía actualizada", zap.String("user_id", profile.UserID), zap.String("membership", membership))
	return nil
}

// MembershipForSubscription: active y trialing son premium; cualquier otro estado es free.
func MembershipForSubscription(status string) string {
	if status == "active" || status == "trialing" {
		return entity.MembershipPremium
	}
	return entity.MembershipFree
}
