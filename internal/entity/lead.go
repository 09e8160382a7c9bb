package entity

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Estados de un lead.
const (
	LeadNuevo      = "nuevo"
	LeadAceptado   = "aceptado"
	LeadContactado = "contactado"
	LeadEnProgreso = "en_progreso"
	LeadCompletado = "completado"
)

// Sub-estados de la cita.
const (
	AppointmentPendingContact = "pendiente_contacto"
	AppointmentContacted      = "contactado"
	AppointmentScheduled      = "agendado"
	AppointmentConfirmed      = "confirmado"
)

// Tipos de evento registrados en lead_events y publicados en la cola.
const (
	EventLeadCreated           = "lead.created"
	EventLeadAccepted          = "lead.accepted"
	EventLeadContacted         = "lead.contacted"
	EventAppointmentScheduled  = "lead.appointment_scheduled"
	EventAppointmentConfirmed  = "lead.appointment_confirmed"
	EventLeadCompleted         = "lead.completed"
	EventLeadReviewed          = "lead.reviewed"
	EventContactDeadlineMissed = "contact_deadline_missed"
)

// ContactWindow es el tiempo que tiene el profesional para contactar al cliente tras aceptar.
const ContactWindow = 30 * time.Minute

// DeadlinePenalty se descuenta de engagement_points cuando vence el plazo de contacto.
const DeadlinePenalty = -5

// Coordenadas por defecto (Zócalo, CDMX) cuando el cliente no comparte ubicación.
const (
	DefaultLat = 19.4326
	DefaultLng = -99.1332
)

var (
	ErrLeadNotFound        = errors.New("lead no encontrado")
	ErrLeadAlreadyAssigned = errors.New("lead ya asignado a otro profesional")
	ErrLeadInvalidState    = errors.New("el lead no está en un estado válido para esta acción")
	ErrReviewAlreadyExists = errors.New("el lead ya tiene una reseña")
	// ErrRPCUnavailable indica que la función privilegiada no existe o no respondió.
	ErrRPCUnavailable = errors.New("rpc no disponible")
)

type Lead struct {
	ID                    string     `json:"id"`
	ClienteID             string     `json:"cliente_id"`
	NombreCliente         string     `json:"nombre_cliente"`
	Whatsapp              string     `json:"whatsapp"`
	DescripcionProyecto   string     `json:"descripcion_proyecto"`
	Servicio              string     `json:"servicio"`
	ServicioSolicitado    string     `json:"servicio_solicitado,omitempty"`
	DisciplinaIA          string     `json:"disciplina_ia,omitempty"`
	UrgenciaIA            *int       `json:"urgencia_ia,omitempty"`
	DiagnosticoIA         string     `json:"diagnostico_ia,omitempty"`
	UbicacionLat          float64    `json:"ubicacion_lat"`
	UbicacionLng          float64    `json:"ubicacion_lng"`
	UbicacionDireccion    string     `json:"ubicacion_direccion,omitempty"`
	PhotosURLs            []string   `json:"photos_urls"`
	Estado                string     `json:"estado"`
	ProfesionalAsignadoID *string    `json:"profesional_asignado_id"`
	FechaCreacion         time.Time  `json:"fecha_creacion"`
	FechaAsignacion       *time.Time `json:"fecha_asignacion"`
	ContactDeadlineAt     *time.Time `json:"contact_deadline_at"`
	ContactedAt           *time.Time `json:"contacted_at"`
	ContactMethod         string     `json:"contact_method,omitempty"`
	ContactNotes          string     `json:"contact_notes,omitempty"`
	AppointmentAt         *time.Time `json:"appointment_at"`
	AppointmentStatus     string     `json:"appointment_status,omitempty"`
	AppointmentNotes      string     `json:"appointment_notes,omitempty"`
	WorkCompletedAt       *time.Time `json:"work_completed_at"`
	EngagementPoints      int        `json:"engagement_points"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsAssignedTo indica si el lead pertenece al profesional.
func (l *Lead) IsAssignedTo(professionalID string) bool {
	return l.ProfesionalAsignadoID != nil && *l.ProfesionalAsignadoID == professionalID
}

// IsOpen indica si el lead todavía puede ser aceptado.
func (l *Lead) IsOpen() bool {
	return l.Estado == LeadNuevo && l.ProfesionalAsignadoID == nil
}

// LeadReview es la calificación que deja el cliente al terminar el trabajo.
type LeadReview struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadEvent es una fila de auditoría en lead_events.
type LeadEvent struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"lead_id"`
	ActorID   string          `json:"actor_id,omitempty"`
	ActorRole string          `json:"actor_role"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AcceptLeadParams agrupa los valores que escribe una aceptación.
type AcceptLeadParams struct {
	LeadID         string
	ProfessionalID string
	AssignedAt     time.Time
	Deadline       time.Time
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)

	// AcceptViaRPC llama a la función privilegiada accept_lead.
	AcceptViaRPC(ctx context.Context, params AcceptLeadParams) (*Lead, error)
	// AcceptAsUser ejecuta la actualización condicionada con las credenciales del usuario (RLS).
	AcceptAsUser(ctx context.Context, user AuthUser, params AcceptLeadParams) (*Lead, error)
	// AcceptAsAdmin ejecuta la misma actualización con la credencial de servicio.
	AcceptAsAdmin(ctx context.Context, params AcceptLeadParams) (*Lead, error)

	MarkContacted(ctx context.Context, leadID, professionalID, method, notes string, at time.Time) (*Lead, error)
	ScheduleAppointment(ctx context.Context, leadID string, at time.Time, notes string) (*Lead, error)
	ConfirmAppointment(ctx context.Context, leadID string) (*Lead, error)
	Complete(ctx context.Context, leadID, professionalID string, at time.Time) (*Lead, error)

	ListOverdueContacts(ctx context.Context, now time.Time) ([]*Lead, error)
	// ApplyDeadlinePenalty registra professionalID como actor del evento de penalización.
	ApplyDeadlinePenalty(ctx context.Context, leadID, professionalID string, penalty int) error
}

type LeadReviewRepositoryInterface interface {
	Create(ctx context.Context, review *LeadReview) error
	FindByLeadID(ctx context.Context, leadID string) (*LeadReview, error)
}

type LeadEventRepositoryInterface interface {
	Insert(ctx context.Context, event *LeadEvent) error
}
