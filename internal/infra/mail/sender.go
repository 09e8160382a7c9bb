package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// dialer es el subconjunto de *gomail.Dialer que usa el sender.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From    string
	SiteURL string
	dialer  dialer
}

func NewEmailSender(host string, port int, user, password, from, siteURL string) *EmailSender {
	return &EmailSender{
		From:    from,
		SiteURL: strings.TrimRight(siteURL, "/"),
		dialer:  gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) SendLeadCreated(_ context.Context, to string, lead *entity.Lead) error {
	body, err := render("lead_created.html", LeadCreatedData{
		NombreCliente: lead.NombreCliente,
		Servicio:      lead.Servicio,
		Descripcion:   lead.DescripcionProyecto,
		LeadURL:       s.leadURL(lead.ID),
	})
	if err != nil {
		return err
	}
	return s.Send(to, "✅ Recibimos tu solicitud en Sumee App", body)
}

func (s *EmailSender) SendLeadAccepted(_ context.Context, to string, lead *entity.Lead, pro *entity.Professional) error {
	body, err := render("lead_accepted.html", LeadAcceptedData{
		NombreCliente:       lead.NombreCliente,
		Servicio:            lead.Servicio,
		NombreProfesional:   pro.FullName,
		Profesion:           pro.Profession,
		WhatsappProfesional: pro.Whatsapp,
		LeadURL:             s.leadURL(lead.ID),
	})
	if err != nil {
		return err
	}
	return s.Send(to, "🛠️ Tu técnico aceptó tu solicitud", body)
}

// Send envía un HTML ya renderizado.
func (s *EmailSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("error al enviar email SMTP: %w", err)
	}
	return nil
}

func (s *EmailSender) leadURL(leadID string) string {
	return s.SiteURL + "/dashboard/client/leads/" + leadID
}

func render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("error al procesar template %s: %w", name, err)
	}
	return body.String(), nil
}
