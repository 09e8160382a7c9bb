package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type CreateLeadUseCase struct {
	Leads   entity.LeadRepositoryInterface
	Events  entity.LeadEventRepositoryInterface
	Queue   QueueProducerInterface
	Metrics Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewCreateLeadUseCase(
	leads entity.LeadRepositoryInterface,
	events entity.LeadEventRepositoryInterface,
	queue QueueProducerInterface,
	metrics Metrics,
	logger *zap.Logger,
) *CreateLeadUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateLeadUseCase{
		Leads:   leads,
		Events:  events,
		Queue:   queue,
		Metrics: metrics,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*CreateLeadOutput, error) {
	if input.ClienteID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión para solicitar un servicio.")
	}

	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, domainErr(CodeValidation, "Datos inválidos: "+joinValidationErrors(errs))
	}

	lat, lng := entity.DefaultLat, entity.DefaultLng
	if input.UbicacionLat != nil && input.UbicacionLng != nil {
		lat, lng = *input.UbicacionLat, *input.UbicacionLng
	}

	photos := input.PhotosURLs
	if photos == nil {
		photos = []string{}
	}

	now := uc.Now().UTC()
	lead := &entity.Lead{
		ID:                  uuid.New().String(),
		ClienteID:           input.ClienteID,
		NombreCliente:       strings.TrimSpace(input.NombreCliente),
		Whatsapp:            normalizeWhatsapp(input.Whatsapp),
		DescripcionProyecto: strings.TrimSpace(input.DescripcionProyecto),
		Servicio:            strings.TrimSpace(input.Servicio),
		ServicioSolicitado:  input.ServicioSolicitado,
		DisciplinaIA:        input.DisciplinaIA,
		UrgenciaIA:          input.UrgenciaIA,
		DiagnosticoIA:       input.DiagnosticoIA,
		UbicacionLat:        lat,
		UbicacionLng:        lng,
		UbicacionDireccion:  input.UbicacionDireccion,
		PhotosURLs:          photos,
		Estado:              entity.LeadNuevo,
		FechaCreacion:       now,
		UpdatedAt:           now,
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		uc.Logger.Error("❌ Error al crear lead", zap.Error(err), zap.String("cliente_id", input.ClienteID))
		return nil, technicalErr(CodeDatabase, "No se pudo crear la solicitud. Intenta nuevamente.", err)
	}

	uc.Logger.Info("🆕 Lead creado", zap.String("lead_id", lead.ID), zap.String("servicio", lead.Servicio))

	emitter := leadEventEmitter{events: uc.Events, queue: uc.Queue, metrics: uc.Metrics, logger: uc.Logger}
	emitter.emit(ctx, lead, input.ClienteID, entity.RoleClient, entity.EventLeadCreated, nil, now)

	return &CreateLeadOutput{Success: true, LeadID: lead.ID, Lead: lead}, nil
}
