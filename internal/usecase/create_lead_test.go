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

func validLeadInput() CreateLeadInput {
	return CreateLeadInput{
		NombreCliente:       " Ana López ",
		Whatsapp:            "+52 55 1234 5678",
		DescripcionProyecto: "Fuga en el lavabo del baño",
		Servicio:            "Plomería",
		ClienteID:           "cli-1",
	}
}

func TestCreateLead_Success(t *testing.T) {
	leads := new(MockLeadRepository)
	events := new(MockLeadEventRepository)
	q := new(MockQueueProducer)

	leads.On("Create", mock.Anything, mock.AnythingOfType("*entity.Lead")).Return(nil)
	events.On("Insert", mock.Anything, mock.Anything).Return(nil)
	q.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(p queue.LeadEventPayload) bool {
		return p.Event == entity.EventLeadCreated && p.ClienteID == "cli-1"
	})).Return(nil)

	uc := NewCreateLeadUseCase(leads, events, q, nil, nil)
	uc.Now = fixedClock

	out, err := uc.Execute(context.Background(), validLeadInput())

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.LeadID)
	assert.Equal(t, "Ana López", out.Lead.NombreCliente)
	assert.Equal(t, "525512345678", out.Lead.Whatsapp)
	assert.Equal(t, entity.LeadNuevo, out.Lead.Estado)
	assert.Equal(t, entity.DefaultLat, out.Lead.UbicacionLat)
	assert.Equal(t, entity.DefaultLng, out.Lead.UbicacionLng)
	assert.NotNil(t, out.Lead.PhotosURLs)
	assert.Nil(t, out.Lead.ProfesionalAsignadoID)
	q.AssertExpectations(t)
}

func TestCreateLead_UsesProvidedLocation(t *testing.T) {
	leads := new(MockLeadRepository)
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)

	lat, lng := 20.6597, -103.3496
	in := validLeadInput()
	in.UbicacionLat, in.UbicacionLng = &lat, &lng

	out, err := NewCreateLeadUseCase(leads, nil, nil, nil, nil).Execute(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, lat, out.Lead.UbicacionLat)
	assert.Equal(t, lng, out.Lead.UbicacionLng)
}

func TestCreateLead_ValidationErrors(t *testing.T) {
	leads := new(MockLeadRepository)
	uc := NewCreateLeadUseCase(leads, nil, nil, nil, nil)

	in := validLeadInput()
	in.Whatsapp = "123"
	in.Servicio = ""

	_, err := uc.Execute(context.Background(), in)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Contains(t, de.Message, "whatsapp")
	assert.Contains(t, de.Message, "servicio")
	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLead_RequiresSession(t *testing.T) {
	in := validLeadInput()
	in.ClienteID = ""

	_, err := NewCreateLeadUseCase(new(MockLeadRepository), nil, nil, nil, nil).Execute(context.Background(), in)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeUnauthorized, de.Code)
}

func TestCreateLead_DatabaseError(t *testing.T) {
	leads := new(MockLeadRepository)
	leads.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := NewCreateLeadUseCase(leads, nil, nil, nil, nil).Execute(context.Background(), validLeadInput())

	assert.True(t, IsTechnicalError(err))
}

func TestValidateCreateLeadInput_Ranges(t *testing.T) {
	lat, lng := 91.0, -181.0
	in := validLeadInput()
	in.UbicacionLat, in.UbicacionLng = &lat, &lng
	in.UrgenciaIA = intPtr(11)

	errs := ValidateCreateLeadInput(in)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"ubicacion_lat", "ubicacion_lng", "urgencia_ia"}, fields)
}

func TestIsValidWhatsapp(t *testing.T) {
	assert.True(t, isValidWhatsapp("5512345678"))
	assert.True(t, isValidWhatsapp("+52 1 55 1234 5678"))
	assert.False(t, isValidWhatsapp("55-1234"))
	assert.False(t, isValidWhatsapp("12345678901234"))
}
