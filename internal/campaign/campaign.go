// Package campaign genera y envía los correos de "completa tu perfil" a profesionales.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	MissingWhatsapp = "whatsapp_faltante"
	MissingLocation = "ubicacion_faltante"
	MissingBoth     = "ambos_faltantes"

	defaultProfession = "Profesional"
	unsubscribeURL    = "https://sumeeapp.com/unsubscribe?id="
)

var placeholderRe = regexp.MustCompile(`\{\{\s*[^{}]*\}\}`)

var ErrUnsubstitutedPlaceholder = errors.New("la plantilla tiene placeholders sin sustituir")

// Professional es una entrada del roster YAML.
type Professional struct {
	UserID          string   `yaml:"user_id"`
	Email           string   `yaml:"email"`
	FullName        string   `yaml:"full_name"`
	Whatsapp        string   `yaml:"whatsapp"`
	UbicacionLat    *float64 `yaml:"ubicacion_lat"`
	UbicacionLng    *float64 `yaml:"ubicacion_lng"`
	Profession      string   `yaml:"profession"`
	DataMissingType string   `yaml:"data_missing_type"`
}

type Email struct {
	To         string
	Name       string
	Subject    string
	HTML       string
	DataType   string
	Profession string
}

// Stats cuenta destinatarios por tipo de dato faltante.
type Stats map[string]int

func LoadRoster(r io.Reader) ([]Professional, error) {
	var roster []Professional
	if err := yaml.NewDecoder(r).Decode(&roster); err != nil {
		return nil, fmt.Errorf("error leyendo roster: %w", err)
	}
	for i, p := range roster {
		if strings.TrimSpace(p.Email) == "" {
			return nil, fmt.Errorf("roster: la entrada %d no tiene email", i+1)
		}
	}
	return roster, nil
}

func SubjectFor(dataType string) string {
	switch dataType {
	case MissingWhatsapp:
		return "📱 Agrega tu WhatsApp y recibe 5X más clientes"
	case MissingLocation:
		return "📍 Define tu zona y aparece en más búsquedas"
	case MissingBoth:
		return "⚡ Solo 2 minutos para 10X más oportunidades"
	default:
		return "✨ Completa tu perfil en Sumee App"
	}
}

func FirstName(fullName string) string {
	if f := strings.Fields(fullName); len(f) > 0 {
		return f[0]
	}
	return ""
}

func professionOf(p Professional) string {
	if s := strings.TrimSpace(p.Profession); s != "" {
		return s
	}
	return defaultProfession
}

var knownPlaceholders = map[string]bool{
	"{{nombre_profesional}}": true,
	"{{unsubscribe_url}}":    true,
	"{{profesion}}":          true,
}

// Personalize sustituye los placeholders conocidos. La plantilla se revisa antes de sustituir:
// los datos del profesional pueden contener llaves y no invalidan una plantilla correcta.
func Personalize(tpl string, p Professional) (string, error) {
	var unknown []string
	for _, ph := range placeholderRe.FindAllString(tpl, -1) {
		if !knownPlaceholders[ph] {
			unknown = append(unknown, ph)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return "", fmt.Errorf("%w: %s", ErrUnsubstitutedPlaceholder, strings.Join(slices.Compact(unknown), ", "))
	}

	r := strings.NewReplacer(
		"{{nombre_profesional}}", html.EscapeString(FirstName(p.FullName)),
		"{{unsubscribe_url}}", unsubscribeURL+p.UserID,
		"{{profesion}}", html.EscapeString(professionOf(p)),
	)
	return r.Replace(tpl), nil
}

// Build personaliza todos los correos; si uno falla no se devuelve ninguno.
func Build(tpl string, roster []Professional) ([]Email, Stats, error) {
	emails := make([]Email, 0, len(roster))
	stats := Stats{}

	for _, p := range roster {
		body, err := Personalize(tpl, p)
		if err != nil {
			return nil, nil, err
		}
		stats[p.DataMissingType]++
		emails = append(emails, Email{
			To:         p.Email,
			Name:       p.FullName,
			Subject:    SubjectFor(p.DataMissingType),
			HTML:       body,
			DataType:   p.DataMissingType,
			Profession: professionOf(p),
		})
	}
	return emails, stats, nil
}

type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SendAll envía secuencialmente con una pausa entre mensajes. Un fallo no detiene el envío.
func SendAll(ctx context.Context, sender Sender, emails []Email, pause time.Duration, logger *zap.Logger) (sent, failed int) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for i, e := range emails {
		if ctx.Err() != nil {
			break
		}
		if err := sender.Send(e.To, e.Subject, e.HTML); err != nil {
			failed++
			logger.Error("❌ Error enviando correo", zap.String("to", e.To), zap.Error(err))
		} else {
			sent++
			logger.Info("✅ Enviado", zap.String("to", e.To))
		}

		if i < len(emails)-1 && pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(pause):
			}
		}
	}
	return sent, failed
}
