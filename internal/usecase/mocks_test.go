package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/geocode"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/stripe"
	"github.com/sumeeapp/sumee-api/internal/infra/queue"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func leadOrNil(args mock.Arguments) (*entity.Lead, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, id))
}

func (m *MockLeadRepository) AcceptViaRPC(ctx context.Context, params entity.AcceptLeadParams) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, params))
}

func (m *MockLeadRepository) AcceptAsUser(ctx context.Context, user entity.AuthUser, params entity.AcceptLeadParams) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, user, params))
}

func (m *MockLeadRepository) AcceptAsAdmin(ctx context.Context, params entity.AcceptLeadParams) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, params))
}

func (m *MockLeadRepository) MarkContacted(ctx context.Context, leadID, professionalID, method, notes string, at time.Time) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, leadID, professionalID, method, notes, at))
}

func (m *MockLeadRepository) ScheduleAppointment(ctx context.Context, leadID string, at time.Time, notes string) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, leadID, at, notes))
}

func (m *MockLeadRepository) ConfirmAppointment(ctx context.Context, leadID string) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, leadID))
}

func (m *MockLeadRepository) Complete(ctx context.Context, leadID, professionalID string, at time.Time) (*entity.Lead, error) {
	return leadOrNil(m.Called(ctx, leadID, professionalID, at))
}

func (m *MockLeadRepository) ListOverdueContacts(ctx context.Context, now time.Time) ([]*entity.Lead, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ApplyDeadlinePenalty(ctx context.Context, leadID, professionalID string, penalty int) error {
	return m.Called(ctx, leadID, professionalID, penalty).Error(0)
}

// MockProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func profileOrNil(args mock.Arguments) (*entity.Profile, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockProfileRepository) FindByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	return profileOrNil(m.Called(ctx, userID))
}

func (m *MockProfileRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.Profile, error) {
	return profileOrNil(m.Called(ctx, customerID))
}

func (m *MockProfileRepository) UpdateRole(ctx context.Context, userID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockProfileRepository) UpdateGeo(ctx context.Context, userID string, geo entity.GeoUpdate) error {
	return m.Called(ctx, userID, geo).Error(0)
}

func (m *MockProfileRepository) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *MockProfileRepository) UpdateMembership(ctx context.Context, userID, membership string) error {
	return m.Called(ctx, userID, membership).Error(0)
}

// MockProfessionalRepository
type MockProfessionalRepository struct {
	mock.Mock
}

func (m *MockProfessionalRepository) Create(ctx context.Context, p *entity.Professional) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfessionalRepository) FindByUserID(ctx context.Context, userID string) (*entity.Professional, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Professional), args.Error(1)
}

func (m *MockProfessionalRepository) ListTopRated(ctx context.Context, limit int) ([]*entity.Professional, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Professional), args.Error(1)
}

func (m *MockProfessionalRepository) RefreshRating(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockLeadReviewRepository
type MockLeadReviewRepository struct {
	mock.Mock
}

func (m *MockLeadReviewRepository) Create(ctx context.Context, review *entity.LeadReview) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockLeadReviewRepository) FindByLeadID(ctx context.Context, leadID string) (*entity.LeadReview, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LeadReview), args.Error(1)
}

// MockLeadEventRepository
type MockLeadEventRepository struct {
	mock.Mock
}

func (m *MockLeadEventRepository) Insert(ctx context.Context, event *entity.LeadEvent) error {
	return m.Called(ctx, event).Error(0)
}

// MockServiceCatalogRepository
type MockServiceCatalogRepository struct {
	mock.Mock
}

func (m *MockServiceCatalogRepository) ListActive(ctx context.Context, limit int) ([]*entity.CatalogService, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.CatalogService), args.Error(1)
}

func (m *MockServiceCatalogRepository) ListActiveByDiscipline(ctx context.Context, discipline string, limit int) ([]*entity.CatalogService, error) {
	args := m.Called(ctx, discipline, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.CatalogService), args.Error(1)
}

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error {
	return m.Called(ctx, payload).Error(0)
}

// MockMetrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) LeadAccepted(step string)        { m.Called(step) }
func (m *MockMetrics) LeadAcceptConflict()             { m.Called() }
func (m *MockMetrics) DeadlinePenalty()                { m.Called() }
func (m *MockMetrics) IntegrationError(service string) { m.Called(service) }

// MockLanguageModel
type MockLanguageModel struct {
	mock.Mock
}

func (m *MockLanguageModel) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockGeocoder
type MockGeocoder struct {
	mock.Mock
	name string
}

func (m *MockGeocoder) Name() string { return m.name }

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*geocode.Result, error) {
	args := m.Called(ctx, lat, lng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Result), args.Error(1)
}

// MockPaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func intentOrNil(args mock.Arguments) (*stripe.IntentResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.IntentResult), args.Error(1)
}

func (m *MockPaymentGateway) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentGateway) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	args := m.Called(ctx, userID, email)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) AuthorizeHold(ctx context.Context, in stripe.HoldInput) (*stripe.IntentResult, error) {
	return intentOrNil(m.Called(ctx, in))
}

func (m *MockPaymentGateway) GetIntent(ctx context.Context, id string) (*stripe.IntentResult, error) {
	return intentOrNil(m.Called(ctx, id))
}

func (m *MockPaymentGateway) Capture(ctx context.Context, id string) (*stripe.IntentResult, error) {
	return intentOrNil(m.Called(ctx, id))
}

func (m *MockPaymentGateway) Cancel(ctx context.Context, id string) (*stripe.IntentResult, error) {
	return intentOrNil(m.Called(ctx, id))
}

// MockAuthProvider
type MockAuthProvider struct {
	mock.Mock
}

func sessionOrNil(args mock.Arguments) (*entity.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockAuthProvider) ExchangeCode(ctx context.Context, code, verifier string) (*entity.Session, error) {
	return sessionOrNil(m.Called(ctx, code, verifier))
}

func (m *MockAuthProvider) VerifyEmailToken(ctx context.Context, tokenHash string) (*entity.Session, error) {
	return sessionOrNil(m.Called(ctx, tokenHash))
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendLeadCreated(ctx context.Context, to string, lead *entity.Lead) error {
	return m.Called(ctx, to, lead).Error(0)
}

func (m *MockEmailService) SendLeadAccepted(ctx context.Context, to string, lead *entity.Lead, pro *entity.Professional) error {
	return m.Called(ctx, to, lead, pro).Error(0)
}

// MockWebhookVerifier
type MockWebhookVerifier struct {
	mock.Mock
}

func (m *MockWebhookVerifier) ParseWebhook(payload []byte, signature string) (*stripe.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.WebhookEvent), args.Error(1)
}

// pkceTestError simula el error del proveedor cuando falla el code verifier.
type pkceTestError struct{ pkce bool }

func (e *pkceTestError) Error() string     { return "code verifier mismatch" }
func (e *pkceTestError) IsPKCEError() bool { return e.pkce }

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
