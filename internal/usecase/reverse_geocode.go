package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/integration/geocode"
)

// ReverseGeocodeUseCase resuelve coordenadas a ciudad/zona/CP y actualiza el perfil.
// Los proveedores se prueban en orden; el primero que responda gana.
type ReverseGeocodeUseCase struct {
	Providers []Geocoder
	Profiles  entity.ProfileRepositoryInterface
	Metrics   Metrics
	Logger    *zap.Logger
}

func NewReverseGeocodeUseCase(profiles entity.ProfileRepositoryInterface, metrics Metrics, logger *zap.Logger, providers ...Geocoder) *ReverseGeocodeUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReverseGeocodeUseCase{Providers: providers, Profiles: profiles, Metrics: metrics, Logger: logger}
}

func (uc *ReverseGeocodeUseCase) Execute(ctx context.Context, input ReverseGeocodeInput) (*ReverseGeocodeOutput, error) {
	if input.Caller.ID == "" {
		return nil, domainErr(CodeUnauthorized, "No autorizado")
	}
	userID := input.UserID
	if userID == "" {
		userID = input.Caller.ID
	}
	if userID != input.Caller.ID {
		return nil, domainErr(CodeForbidden, "No puedes actualizar la ubicación de otro usuario")
	}
	if input.Lat < -90 || input.Lat > 90 || input.Lng < -180 || input.Lng > 180 {
		return nil, domainErr(CodeValidation, "Coordenadas inválidas")
	}
	if input.Lat == 0 && input.Lng == 0 {
		return nil, domainErr(CodeValidation, "user_id, lat y lng son requeridos")
	}

	res, provider, err := uc.lookup(ctx, input.Lat, input.Lng)
	if err != nil {
		return nil, technicalErr(CodeIntegration, "No se pudo obtener información de ubicación", err)
	}

	geo := entity.GeoUpdate{City: res.City, SubCityZone: res.SubCityZone, PostalCode: res.PostalCode}
	if !geo.IsEmpty() {
		if err := uc.Profiles.UpdateGeo(ctx, userID, geo); err != nil {
			if errors.Is(err, entity.ErrProfileNotFound) {
				return nil, domainErr(CodeProfileNotFound, "Perfil no encontrado")
			}
			return nil, technicalErr(CodeDatabase, "Error al actualizar perfil", err)
		}
		uc.Logger.Info("📍 Perfil actualizado con geolocalización",
			zap.String("user_id", userID), zap.String("city", geo.City), zap.String("zone", geo.SubCityZone))
	}

	return &ReverseGeocodeOutput{
		City:        res.City,
		SubCityZone: res.SubCityZone,
		PostalCode:  res.PostalCode,
		Address:     res.Address,
		Provider:    provider,
	}, nil
}

func (uc *ReverseGeocodeUseCase) lookup(ctx context.Context, lat, lng float64) (*geocode.Result, string, error) {
	var errs []error
	for _, p := range uc.Providers {
		res, err := p.ReverseGeocode(ctx, lat, lng)
		if err == nil {
			return res, p.Name(), nil
		}
		uc.Metrics.IntegrationError(p.Name())
		uc.Logger.Warn("⚠️ Proveedor de geocodificación falló", zap.String("provider", p.Name()), zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, "", errors.New("sin proveedores de geocodificación")
	}
	return nil, "", errors.Join(errs...)
}
