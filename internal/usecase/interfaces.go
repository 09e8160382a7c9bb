package usecase

import (
	"context"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/geocode"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/stripe"
	"github.com/sumeeapp/sumee-api/internal/infra/queue"
)

// LanguageModel genera texto a partir de un prompt (Gemini).
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Geocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, lat, lng float64) (*geocode.Result, error)
}

type PaymentGateway interface {
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
	CreateSetupIntent(ctx context.Context, customerID string) (string, error)
	AuthorizeHold(ctx context.Context, in stripe.HoldInput) (*stripe.IntentResult, error)
	GetIntent(ctx context.Context, paymentIntentID string) (*stripe.IntentResult, error)
	Capture(ctx context.Context, paymentIntentID string) (*stripe.IntentResult, error)
	Cancel(ctx context.Context, paymentIntentID string) (*stripe.IntentResult, error)
}

// AuthProvider intercambia códigos del callback por sesiones.
type AuthProvider interface {
	ExchangeCode(ctx context.Context, code, verifier string) (*entity.Session, error)
	VerifyEmailToken(ctx context.Context, tokenHash string) (*entity.Session, error)
}

type QueueProducerInterface = queue.QueueProducerInterface

// Metrics son los contadores de dominio que exponen los casos de uso.
type Metrics interface {
	LeadAccepted(step string)
	LeadAcceptConflict()
	DeadlinePenalty()
	IntegrationError(service string)
}

type EmailService interface {
	SendLeadCreated(ctx context.Context, to string, lead *entity.Lead) error
	SendLeadAccepted(ctx context.Context, to string, lead *entity.Lead, pro *entity.Professional) error
}

// noopMetrics se usa cuando no se inyectan métricas (tests, CLI).
type noopMetrics struct{}

func (noopMetrics) LeadAccepted(string)     {}
func (noopMetrics) LeadAcceptConflict()     {}
func (noopMetrics) DeadlinePenalty()        {}
func (noopMetrics) IntegrationError(string) {}
