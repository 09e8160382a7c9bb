package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const leadColumns = `
	id, cliente_id, nombre_cliente, whatsapp, descripcion_proyecto, servicio,
	servicio_solicitado, disciplina_ia, urgencia_ia, diagnostico_ia,
	ubicacion_lat, ubicacion_lng, ubicacion_direccion, photos_urls,
	estado, profesional_asignado_id, fecha_creacion, fecha_asignacion,
	contact_deadline_at, contacted_at, contact_method, contact_notes,
	appointment_at, appointment_status, appointment_notes, work_completed_at,
	engagement_points, updated_at`

// acceptUpdate es la asignación condicionada compartida por el camino RLS y el administrativo.
const acceptUpdate = `
	UPDATE leads
	   SET estado = 'aceptado',
	       profesional_asignado_id = $2,
	       fecha_asignacion = $3,
	       contact_deadline_at = $4,
	       appointment_status = 'pendiente_contacto',
	       updated_at = $3
	 WHERE id = $1
	   AND estado = 'nuevo'
	   AND profesional_asignado_id IS NULL
	RETURNING ` + leadColumns

type rowScanner interface {
	Scan(dest ...any) error
}

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (
			id, cliente_id, nombre_cliente, whatsapp, descripcion_proyecto, servicio,
			servicio_solicitado, disciplina_ia, urgencia_ia, diagnostico_ia,
			ubicacion_lat, ubicacion_lng, ubicacion_direccion, photos_urls,
			estado, fecha_creacion, engagement_points, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.ClienteID,
		lead.NombreCliente,
		lead.Whatsapp,
		lead.DescripcionProyecto,
		lead.Servicio,
		nullString(lead.ServicioSolicitado),
		nullString(lead.DisciplinaIA),
		lead.UrgenciaIA,
		nullString(lead.DiagnosticoIA),
		lead.UbicacionLat,
		lead.UbicacionLng,
		nullString(lead.UbicacionDireccion),
		pq.Array(lead.PhotosURLs),
		lead.Estado,
		lead.FechaCreacion,
		lead.EngagementPoints,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error insertando lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error consultando lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) AcceptViaRPC(ctx context.Context, p entity.AcceptLeadParams) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM accept_lead($1, $2, $3)`,
		p.LeadID, p.ProfessionalID, p.Deadline,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, mapRPCError(err)
	}
	return lead, nil
}

// mapRPCError traduce las excepciones de accept_lead; cualquier otro fallo se reporta como RPC no disponible.
func mapRPCError(err error) error {
	switch raisedMessage(err) {
	case "LEAD_ALREADY_ASSIGNED":
		return entity.ErrLeadAlreadyAssigned
	case "LEAD_NOT_FOUND":
		return entity.ErrLeadNotFound
	}
	if pgCode(err) == pgUndefinedFunction {
		return fmt.Errorf("%w: accept_lead no existe", entity.ErrRPCUnavailable)
	}
	return fmt.Errorf("%w: %v", entity.ErrRPCUnavailable, err)
}

// AcceptAsUser ejecuta la actualización bajo el rol authenticated con los claims del usuario,
// de modo que las políticas RLS de leads deciden si puede escribir.
func (r *LeadRepository) AcceptAsUser(ctx context.Context, user entity.AuthUser, p entity.AcceptLeadParams) (*entity.Lead, error) {
	claims, err := json.Marshal(map[string]string{
		"sub":   user.ID,
		"email": user.Email,
		"role":  "authenticated",
	})
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error iniciando transacción: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, string(claims)); err != nil {
		return nil, fmt.Errorf("error fijando claims: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SET LOCAL ROLE authenticated`); err != nil {
		return nil, fmt.Errorf("error cambiando de rol: %w", err)
	}

	lead, err := scanLead(tx.QueryRowContext(ctx, acceptUpdate, p.LeadID, p.ProfessionalID, p.AssignedAt, p.Deadline))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadAlreadyAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("error aceptando lead (rls): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error confirmando aceptación: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) AcceptAsAdmin(ctx context.Context, p entity.AcceptLeadParams) (*entity.Lead, error) {
	lead, err := scanLead(r.DB.QueryRowContext(ctx, acceptUpdate, p.LeadID, p.ProfessionalID, p.AssignedAt, p.Deadline))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadAlreadyAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("error aceptando lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) MarkContacted(ctx context.Context, leadID, professionalID, method, notes string, at time.Time) (*entity.Lead, error) {
	query := `
		UPDATE leads
		   SET contacted_at = $4,
		       contact_method = $3,
		       contact_notes = COALESCE($5, contact_notes),
		       estado = 'contactado',
		       appointment_status = 'contactado',
		       updated_at = $4
		 WHERE id = $1
		   AND profesional_asignado_id = $2
		   AND estado = 'aceptado'
		RETURNING ` + leadColumns

	return r.guardedUpdate(ctx, query, leadID, professionalID, method, at, nullString(notes))
}

func (r *LeadRepository) ScheduleAppointment(ctx context.Context, leadID string, at time.Time, notes string) (*entity.Lead, error) {
	query := `
		UPDATE leads
		   SET appointment_at = $2,
		       appointment_status = 'agendado',
		       appointment_notes = COALESCE($3, appointment_notes),
		       updated_at = now()
		 WHERE id = $1
		   AND estado IN ('aceptado', 'contactado')
		RETURNING ` + leadColumns

	return r.guardedUpdate(ctx, query, leadID, at, nullString(notes))
}

func (r *LeadRepository) ConfirmAppointment(ctx context.Context, leadID string) (*entity.Lead, error) {
	query := `
		UPDATE leads
		   SET appointment_status = 'confirmado',
		       estado = 'en_progreso',
		       updated_at = now()
		 WHERE id = $1
		   AND appointment_status = 'agendado'
		RETURNING ` + leadColumns

	return r.guardedUpdate(ctx, query, leadID)
}

func (r *LeadRepository) Complete(ctx context.Context, leadID, professionalID string, at time.Time) (*entity.Lead, error) {
	query := `
		UPDATE leads
		   SET estado = 'completado',
		       work_completed_at = $3,
		       updated_at = $3
		 WHERE id = $1
		   AND profesional_asignado_id = $2
		   AND estado = 'en_progreso'
		RETURNING ` + leadColumns

	return r.guardedUpdate(ctx, query, leadID, professionalID, at)
}

// guardedUpdate ejecuta un UPDATE ... RETURNING condicionado al estado; sin filas, el estado ya cambió.
func (r *LeadRepository) guardedUpdate(ctx context.Context, query string, args ...any) (*entity.Lead, error) {
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("error actualizando lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) ListOverdueContacts(ctx context.Context, now time.Time) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		  FROM leads l
		 WHERE l.contact_deadline_at <= $1
		   AND l.contacted_at IS NULL
		   AND l.appointment_status IN ('pendiente_contacto', 'contactado')
		   AND NOT EXISTS (
		       SELECT 1 FROM lead_events e
		        WHERE e.lead_id = l.id AND e.event_type = 'contact_deadline_missed'
		   )
		 ORDER BY l.contact_deadline_at
		 LIMIT 200
	`

	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error listando leads vencidos: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// penaltyEventInsert registra al profesional asignado como actor del evento.
const penaltyEventInsert = `
	INSERT INTO lead_events (lead_id, actor_id, actor_role, event_type, payload)
	VALUES ($1, $2, 'sistema', 'contact_deadline_missed', $3)
	ON CONFLICT DO NOTHING
`

// ApplyDeadlinePenalty registra el evento y descuenta los puntos en la misma transacción.
// El índice único parcial sobre lead_events evita penalizar dos veces.
func (r *LeadRepository) ApplyDeadlinePenalty(ctx context.Context, leadID, professionalID string, penalty int) error {
	payload, _ := json.Marshal(map[string]int{"penalty": penalty})

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error iniciando transacción: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, penaltyEventInsert, leadID, nullString(professionalID), string(payload))
	if err != nil {
		return fmt.Errorf("error registrando evento de penalización: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE leads
		   SET engagement_points = engagement_points + $2,
		       updated_at = now()
		 WHERE id = $1
	`, leadID, penalty); err != nil {
		return fmt.Errorf("error descontando puntos: %w", err)
	}

	return tx.Commit()
}

func scanLead(s rowScanner) (*entity.Lead, error) {
	var (
		l                                                 entity.Lead
		servicioSolicitado, disciplina, diagnostico       sql.NullString
		direccion, profesional, contactMethod             sql.NullString
		contactNotes, appointmentStatus, appointmentNotes sql.NullString
		urgencia                                          sql.NullInt64
		asignacion, deadline, contacted                   sql.NullTime
		appointmentAt, completedAt                        sql.NullTime
	)

	err := s.Scan(
		&l.ID,
		&l.ClienteID,
		&l.NombreCliente,
		&l.Whatsapp,
		&l.DescripcionProyecto,
		&l.Servicio,
		&servicioSolicitado,
		&disciplina,
		&urgencia,
		&diagnostico,
		&l.UbicacionLat,
		&l.UbicacionLng,
		&direccion,
		pq.Array(&l.PhotosURLs),
		&l.Estado,
		&profesional,
		&l.FechaCreacion,
		&asignacion,
		&deadline,
		&contacted,
		&contactMethod,
		&contactNotes,
		&appointmentAt,
		&appointmentStatus,
		&appointmentNotes,
		&completedAt,
		&l.EngagementPoints,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.ServicioSolicitado = servicioSolicitado.String
	l.DisciplinaIA = disciplina.String
	l.DiagnosticoIA = diagnostico.String
	l.UbicacionDireccion = direccion.String
	l.ContactMethod = contactMethod.String
	l.ContactNotes = contactNotes.String
	l.AppointmentStatus = appointmentStatus.String
	l.AppointmentNotes = appointmentNotes.String
	if urgencia.Valid {
		u := int(urgencia.Int64)
		l.UrgenciaIA = &u
	}
	if profesional.Valid {
		l.ProfesionalAsignadoID = &profesional.String
	}
	l.FechaAsignacion = timePtr(asignacion)
	l.ContactDeadlineAt = timePtr(deadline)
	l.ContactedAt = timePtr(contacted)
	l.AppointmentAt = timePtr(appointmentAt)
	l.WorkCompletedAt = timePtr(completedAt)
	if l.PhotosURLs == nil {
		l.PhotosURLs = []string{}
	}
	return &l, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
