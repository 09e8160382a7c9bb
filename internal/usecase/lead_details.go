package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type LeadDetailsUseCase struct {
	Leads         entity.LeadRepositoryInterface
	Reviews       entity.LeadReviewRepositoryInterface
	Professionals entity.ProfessionalRepositoryInterface
	Profiles      entity.ProfileRepositoryInterface
	Logger        *zap.Logger
}

func NewLeadDetailsUseCase(
	leads entity.LeadRepositoryInterface,
	reviews entity.LeadReviewRepositoryInterface,
	professionals entity.ProfessionalRepositoryInterface,
	profiles entity.ProfileRepositoryInterface,
	logger *zap.Logger,
) *LeadDetailsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadDetailsUseCase{
		Leads:         leads,
		Reviews:       reviews,
		Professionals: professionals,
		Profiles:      profiles,
		Logger:        logger,
	}
}

func (uc *LeadDetailsUseCase) Execute(ctx context.Context, leadID string, user entity.AuthUser) (*LeadDetailsOutput, error) {
	id, ok := normalizeLeadID(leadID)
	if !ok {
		return nil, domainErr(CodeValidation, "El ID del lead es obligatorio.")
	}
	leadID = id
	if user.ID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión para consultar los detalles de esta solicitud.")
	}

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, domainErr(CodeLeadNotFound, "No encontramos la solicitud solicitada.")
		}
		return nil, technicalErr(CodeDatabase, "No pudimos obtener la información detallada de la solicitud.", err)
	}

	allowed, err := uc.canView(ctx, lead, user)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domainErr(CodeForbidden, "No tienes permisos para ver esta solicitud. Si crees que es un error, contacta a soporte.")
	}

	out := &LeadDetailsOutput{Lead: lead}

	review, err := uc.Reviews.FindByLeadID(ctx, lead.ID)
	if err != nil {
		uc.Logger.Warn("⚠️ No se pudo obtener la reseña del lead", zap.String("lead_id", lead.ID), zap.Error(err))
	}
	out.Review = review

	if lead.ProfesionalAsignadoID != nil {
		pro, err := uc.Professionals.FindByUserID(ctx, *lead.ProfesionalAsignadoID)
		if err != nil {
			uc.Logger.Warn("⚠️ No se pudo obtener el profesional asignado", zap.String("lead_id", lead.ID), zap.Error(err))
		} else {
			out.Professional = summarize(pro)
		}
	}

	return out, nil
}

// canView: el cliente dueño, el profesional asignado, o cualquier profesional mientras el lead esté abierto.
func (uc *LeadDetailsUseCase) canView(ctx context.Context, lead *entity.Lead, user entity.AuthUser) (bool, error) {
	if lead.ClienteID == user.ID || lead.IsAssignedTo(user.ID) {
		return true, nil
	}
	if !lead.IsOpen() {
		return false, nil
	}

	profile, err := uc.Profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return false, nil
		}
		return false, technicalErr(CodeDatabase, "No se pudo verificar tu perfil.", err)
	}
	return profile.IsProfessional(), nil
}

func summarize(p *entity.Professional) *ProfessionalSummary {
	return &ProfessionalSummary{
		UserID:               p.UserID,
		FullName:             p.FullName,
		Profession:           p.Profession,
		Whatsapp:             p.Whatsapp,
		CalificacionPromedio: p.CalificacionPromedio,
		AreasServicio:        p.AreasServicio,
		DescripcionPerfil:    p.DescripcionPerfil,
	}
}
