package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/stripe"
)

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	verifier := new(MockWebhookVerifier)
	verifier.On("ParseWebhook", mock.Anything, "bad").Return(nil, errors.New("signature mismatch"))

	err := NewStripeWebhookUseCase(verifier, new(MockProfileRepository), nil).Execute(context.Background(), []byte("{}"), "bad")

	requireCode(t, err, CodeValidation)
}

func TestStripeWebhook_CheckoutActivatesPremium(t *testing.T) {
	verifier := new(MockWebhookVerifier)
	profiles := new(MockProfileRepository)
	verifier.On("ParseWebhook", mock.Anything, "sig").Return(&stripe.WebhookEvent{
		ID: "evt_1", Type: "checkout.session.completed", Metadata: map[string]string{"supabaseUserId": "u1"},
	}, nil)
	profiles.On("UpdateMembership", mock.Anything, "u1", entity.MembershipPremium).Return(nil)

	err := NewStripeWebhookUseCase(verifier, profiles, nil).Execute(context.Background(), []byte("{}"), "sig")

	require.NoError(t, err)
	profiles.AssertExpectations(t)
}

func TestStripeWebhook_SubscriptionUpdates(t *testing.T) {
	tests := []struct {
		name    string
		event   stripe.WebhookEvent
		current string
		want    string
	}{
		{"past_due degrada", stripe.WebhookEvent{Type: "customer.subscription.updated", CustomerID: "cus_1", SubscriptionStatus: "past_due"}, entity.MembershipPremium, entity.MembershipFree},
		{"trialing es premium", stripe.WebhookEvent{Type: "customer.subscription.updated", CustomerID: "cus_1", SubscriptionStatus: "trialing"}, entity.MembershipFree, entity.MembershipPremium},
		{"deleted siempre free", stripe.WebhookEvent{Type: "customer.subscription.deleted", CustomerID: "cus_1", SubscriptionStatus: "active"}, entity.MembershipPremium, entity.MembershipFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockWebhookVerifier)
			profiles := new(MockProfileRepository)
			ev := tt.event
			verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(&ev, nil)
			profiles.On("FindByStripeCustomerID", mock.Anything, "cus_1").Return(&entity.Profile{UserID: "u1", Membership: tt.current}, nil)
			profiles.On("UpdateMembership", mock.Anything, "u1", tt.want).Return(nil)

			err := NewStripeWebhookUseCase(verifier, profiles, nil).Execute(context.Background(), nil, "sig")

			require.NoError(t, err)
			profiles.AssertExpectations(t)
		})
	}
}

func TestStripeWebhook_UnchangedMembershipSkipsWrite(t *testing.T) {
	verifier := new(MockWebhookVerifier)
	profiles := new(MockProfileRepository)
	verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(&stripe.WebhookEvent{
		Type: "customer.subscription.updated", CustomerID: "cus_1", SubscriptionStatus: "active",
	}, nil)
	profiles.On("FindByStripeCustomerID", mock.Anything, "cus_1").Return(&entity.Profile{UserID: "u1", Membership: entity.MembershipPremium}, nil)

	err := NewStripeWebhookUseCase(verifier, profiles, nil).Execute(context.Background(), nil, "sig")

	require.NoError(t, err)
	profiles.AssertNotCalled(t, "UpdateMembership", mock.Anything, mock.Anything, mock.Anything)
}

func TestStripeWebhook_DatabaseErrorIsTechnical(t *testing.T) {
	verifier := new(MockWebhookVerifier)
	profiles := new(MockProfileRepository)
	verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(&stripe.WebhookEvent{
		Type: "checkout.session.completed", Metadata: map[string]string{"supabaseUserId": "u1"},
	}, nil)
	profiles.On("UpdateMembership", mock.Anything, "u1", entity.MembershipPremium).Return(errors.New("db down"))

	err := NewStripeWebhookUseCase(verifier, profiles, nil).Execute(context.Background(), nil, "sig")

	assert.True(t, IsTechnicalError(err))
}

func TestStripeWebhook_UnknownEventIgnored(t *testing.T) {
	verifier := new(MockWebhookVerifier)
	verifier.On("ParseWebhook", mock.Anything, mock.Anything).Return(&stripe.WebhookEvent{Type: "invoice.paid"}, nil)

	assert.NoError(t, NewStripeWebhookUseCase(verifier, new(MockProfileRepository), nil).Execute(context.Background(), nil, "sig"))
}
