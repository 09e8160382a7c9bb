package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var nonDigits = regexp.MustCompile(`\D`)

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(input.NombreCliente) == "" {
		errs = append(errs, ValidationError{"nombre_cliente", "es obligatorio"})
	}

	if strings.TrimSpace(input.Whatsapp) == "" {
		errs = append(errs, ValidationError{"whatsapp", "es obligatorio"})
	} else if !isValidWhatsapp(input.Whatsapp) {
		errs = append(errs, ValidationError{"whatsapp", "debe tener entre 10 y 13 dígitos"})
	}

	if strings.TrimSpace(input.DescripcionProyecto) == "" {
		errs = append(errs, ValidationError{"descripcion_proyecto", "es obligatorio"})
	}

	if strings.TrimSpace(input.Servicio) == "" {
		errs = append(errs, ValidationError{"servicio", "es obligatorio"})
	}

	if input.UbicacionLat != nil && (*input.UbicacionLat < -90 || *input.UbicacionLat > 90) {
		errs = append(errs, ValidationError{"ubicacion_lat", "fuera de rango"})
	}
	if input.UbicacionLng != nil && (*input.UbicacionLng < -180 || *input.UbicacionLng > 180) {
		errs = append(errs, ValidationError{"ubicacion_lng", "fuera de rango"})
	}

	if input.UrgenciaIA != nil && (*input.UrgenciaIA < 1 || *input.UrgenciaIA > 10) {
		errs = append(errs, ValidationError{"urgencia_ia", "debe estar entre 1 y 10"})
	}

	return errs
}

func isValidWhatsapp(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	return len(cleaned) >= 10 && len(cleaned) <= 13
}

func normalizeWhatsapp(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// normalizeLeadID acepta las formas que entiende uuid.Parse (urn:uuid:, llaves, espacios)
// y devuelve la forma canónica que se guarda en Postgres.
func normalizeLeadID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func isValidRating(r int) bool {
	return r >= 1 && r <= 5
}

func joinValidationErrors(errs []ValidationError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
