package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/queue"
)

const (
	testLeadID = "8f14e45f-ceea-467f-a0e6-0b1a2c3d4e5f"
	testProID  = "pro-1"
)

type acceptFixture struct {
	leads    *MockLeadRepository
	profiles *MockProfileRepository
	events   *MockLeadEventRepository
	queue    *MockQueueProducer
	metrics  *MockMetrics
	uc       *AcceptLeadUseCase
}

func newAcceptFixture() *acceptFixture {
	f := &acceptFixture{
		leads:    new(MockLeadRepository),
		profiles: new(MockProfileRepository),
		events:   new(MockLeadEventRepository),
		queue:    new(MockQueueProducer),
		metrics:  new(MockMetrics),
	}
	f.uc = NewAcceptLeadUseCase(f.leads, f.profiles, f.events, f.queue, f.metrics, nil)
	f.uc.Now = fixedClock
	return f
}

func (f *acceptFixture) professional() {
	f.profiles.On("FindByUserID", mock.Anything, testProID).
		Return(&entity.Profile{UserID: testProID, Role: entity.RoleProfesional}, nil)
}

func (f *acceptFixture) expectEvent() {
	f.events.On("Insert", mock.Anything, mock.MatchedBy(func(e *entity.LeadEvent) bool {
		return e.EventType == entity.EventLeadAccepted && e.ActorRole == entity.RoleProfesional
	})).Return(nil)
	f.queue.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(nil)
}

func assignedLead(estado string) *entity.Lead {
	pro := testProID
	return &entity.Lead{ID: testLeadID, ClienteID: "cli-1", Estado: estado, ProfesionalAsignadoID: &pro}
}

func acceptInput() AcceptLeadInput {
	return AcceptLeadInput{LeadID: testLeadID, User: entity.AuthUser{ID: testProID}}
}

func expectedParams() entity.AcceptLeadParams {
	now := fixedNow.UTC()
	return entity.AcceptLeadParams{
		LeadID:         testLeadID,
		ProfessionalID: testProID,
		AssignedAt:     now,
		Deadline:       now.Add(entity.ContactWindow),
	}
}

func TestAcceptLead_RPCSucceeds(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, expectedParams()).Return(assignedLead(entity.LeadAceptado), nil)
	f.metrics.On("LeadAccepted", AcceptStepRPC).Return()
	f.expectEvent()

	out, err := f.uc.Execute(context.Background(), acceptInput())

	require.NoError(t, err)
	assert.Equal(t, AcceptStepRPC, out.Step)
	assert.Equal(t, entity.LeadAceptado, out.Lead.Estado)
	f.leads.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.queue.AssertCalled(t, "PublishLeadEvent", mock.Anything, mock.MatchedBy(func(p queue.LeadEventPayload) bool {
		return p.Event == entity.EventLeadAccepted && p.ProfesionalID == testProID
	}))
	f.events.AssertExpectations(t)
}

func TestAcceptLead_UsesCanonicalLeadID(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, expectedParams()).Return(assignedLead(entity.LeadAceptado), nil)
	f.metrics.On("LeadAccepted", AcceptStepRPC).Return()
	f.expectEvent()

	_, err := f.uc.Execute(context.Background(), AcceptLeadInput{
		LeadID: "  urn:uuid:" + testLeadID, User: entity.AuthUser{ID: testProID},
	})

	require.NoError(t, err)
	f.leads.AssertExpectations(t)
}

func TestAcceptLead_FallsBackToUserUpdate(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrRPCUnavailable)
	f.leads.On("FindByID", mock.Anything, testLeadID).Return(&entity.Lead{ID: testLeadID, Estado: entity.LeadNuevo}, nil)
	f.leads.On("AcceptAsUser", mock.Anything, mock.Anything, expectedParams()).Return(assignedLead(entity.LeadAceptado), nil)
	f.metrics.On("LeadAccepted", AcceptStepUser).Return()
	f.expectEvent()

	out, err := f.uc.Execute(context.Background(), acceptInput())

	require.NoError(t, err)
	assert.Equal(t, AcceptStepUser, out.Step)
	f.leads.AssertNotCalled(t, "AcceptAsAdmin", mock.Anything, mock.Anything)
}

func TestAcceptLead_FallsBackToAdminUpdate(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrRPCUnavailable)
	f.leads.On("FindByID", mock.Anything, testLeadID).Return(&entity.Lead{ID: testLeadID, Estado: entity.LeadNuevo}, nil)
	f.leads.On("AcceptAsUser", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("permission denied for table leads"))
	f.leads.On("AcceptAsAdmin", mock.Anything, expectedParams()).Return(assignedLead(entity.LeadAceptado), nil)
	f.metrics.On("LeadAccepted", AcceptStepAdmin).Return()
	f.expectEvent()

	out, err := f.uc.Execute(context.Background(), acceptInput())

	require.NoError(t, err)
	assert.Equal(t, AcceptStepAdmin, out.Step)
}

func TestAcceptLead_AlreadyMineIsIdempotent(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrLeadAlreadyAssigned)
	f.leads.On("FindByID", mock.Anything, testLeadID).Return(assignedLead(entity.LeadContactado), nil)
	f.metrics.On("LeadAccepted", AcceptStepIdempotent).Return()

	out, err := f.uc.Execute(context.Background(), acceptInput())

	require.NoError(t, err)
	assert.Equal(t, AcceptStepIdempotent, out.Step)
	assert.Equal(t, entity.LeadContactado, out.Lead.Estado)
	f.events.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "PublishLeadEvent", mock.Anything, mock.Anything)
}

func TestAcceptLead_TakenByAnotherProfessional(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	other := "pro-2"
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrLeadAlreadyAssigned)
	f.leads.On("FindByID", mock.Anything, testLeadID).
		Return(&entity.Lead{ID: testLeadID, Estado: entity.LeadAceptado, ProfesionalAsignadoID: &other}, nil)
	f.metrics.On("LeadAcceptConflict").Return()

	out, err := f.uc.Execute(context.Background(), acceptInput())

	assert.Nil(t, out)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeLeadAlreadyAssigned, de.Code)
	assert.Equal(t, msgLeadTaken, de.Message)
	f.leads.AssertNotCalled(t, "AcceptAsUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptLead_AdminRaceLost(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrRPCUnavailable)
	f.leads.On("FindByID", mock.Anything, testLeadID).Return(&entity.Lead{ID: testLeadID, Estado: entity.LeadNuevo}, nil)
	f.leads.On("AcceptAsUser", mock.Anything, mock.Anything, mock.Anything).Return(nil, entity.ErrLeadAlreadyAssigned)
	f.leads.On("AcceptAsAdmin", mock.Anything, mock.Anything).Return(nil, entity.ErrLeadAlreadyAssigned)
	f.metrics.On("LeadAcceptConflict").Return()

	_, err := f.uc.Execute(context.Background(), acceptInput())

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeLeadAlreadyAssigned, de.Code)
	f.metrics.AssertExpectations(t)
}

func TestAcceptLead_AllStepsFail(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	dbErr := errors.New("connection reset")
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrRPCUnavailable)
	f.leads.On("FindByID", mock.Anything, testLeadID).Return(&entity.Lead{ID: testLeadID, Estado: entity.LeadNuevo}, nil)
	f.leads.On("AcceptAsUser", mock.Anything, mock.Anything, mock.Anything).Return(nil, dbErr)
	f.leads.On("AcceptAsAdmin", mock.Anything, mock.Anything).Return(nil, dbErr)

	_, err := f.uc.Execute(context.Background(), acceptInput())

	assert.True(t, IsTechnicalError(err))
	assert.ErrorIs(t, err, dbErr)
}

func TestAcceptLead_NotFound(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(nil, entity.ErrRPCUnavailable)
	f.leads.On("FindByID", mock.Anything, testLeadID).Return(nil, entity.ErrLeadNotFound)

	_, err := f.uc.Execute(context.Background(), acceptInput())

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeLeadNotFound, de.Code)
}

func TestAcceptLead_RejectsNonProfessional(t *testing.T) {
	f := newAcceptFixture()
	f.profiles.On("FindByUserID", mock.Anything, testProID).
		Return(&entity.Profile{UserID: testProID, Role: entity.RoleClient}, nil)

	_, err := f.uc.Execute(context.Background(), acceptInput())

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeForbidden, de.Code)
	f.leads.AssertNotCalled(t, "AcceptViaRPC", mock.Anything, mock.Anything)
}

func TestAcceptLead_InputValidation(t *testing.T) {
	f := newAcceptFixture()

	_, err := f.uc.Execute(context.Background(), AcceptLeadInput{LeadID: testLeadID})
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeUnauthorized, de.Code)

	_, err = f.uc.Execute(context.Background(), AcceptLeadInput{LeadID: "no-es-uuid", User: entity.AuthUser{ID: testProID}})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeValidation, de.Code)
}

func TestAcceptLead_EventFailuresDoNotBreakAcceptance(t *testing.T) {
	f := newAcceptFixture()
	f.professional()
	f.leads.On("AcceptViaRPC", mock.Anything, mock.Anything).Return(assignedLead(entity.LeadAceptado), nil)
	f.metrics.On("LeadAccepted", AcceptStepRPC).Return()
	f.metrics.On("IntegrationError", "rabbitmq").Return()
	f.events.On("Insert", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	f.queue.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	out, err := f.uc.Execute(context.Background(), acceptInput())

	require.NoError(t, err)
	assert.Equal(t, AcceptStepRPC, out.Step)
	f.metrics.AssertCalled(t, "IntegrationError", "rabbitmq")
}
