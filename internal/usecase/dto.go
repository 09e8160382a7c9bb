package usecase

import "github.com/sumeeapp/sumee-api/internal/entity"

type AcceptLeadInput struct {
	LeadID string `json:"leadId"`
	User   entity.AuthUser
}

type AcceptLeadOutput struct {
	Lead *entity.Lead `json:"lead"`
	// Step indica qué paso de la cadena de respaldo aplicó la aceptación.
	Step string `json:"-"`
}

type CreateLeadInput struct {
	NombreCliente       string   `json:"nombre_cliente"`
	Whatsapp            string   `json:"whatsapp"`
	DescripcionProyecto string   `json:"descripcion_proyecto"`
	Servicio            string   `json:"servicio"`
	ServicioSolicitado  string   `json:"servicio_solicitado"`
	DisciplinaIA        string   `json:"disciplina_ia"`
	UrgenciaIA          *int     `json:"urgencia_ia"`
	DiagnosticoIA       string   `json:"diagnostico_ia"`
	UbicacionLat        *float64 `json:"ubicacion_lat"`
	UbicacionLng        *float64 `json:"ubicacion_lng"`
	UbicacionDireccion  string   `json:"ubicacion_direccion"`
	PhotosURLs          []string `json:"photos_urls"`
	ClienteID           string   `json:"-"`
}

type CreateLeadOutput struct {
	Success bool         `json:"success"`
	LeadID  string       `json:"lead_id"`
	Lead    *entity.Lead `json:"lead"`
}

type ContactLeadInput struct {
	LeadID string `json:"leadId"`
	Method string `json:"method"`
	Notes  string `json:"notes"`
	User   entity.AuthUser
}

type AppointmentInput struct {
	LeadID        string `json:"leadId"`
	AppointmentAt string `json:"appointmentAt"`
	Notes         string `json:"notes"`
	Action        string `json:"action"`
	User          entity.AuthUser
}

type CompleteLeadInput struct {
	LeadID string `json:"leadId"`
	User   entity.AuthUser
}

type ReviewLeadInput struct {
	LeadID  string `json:"leadId"`
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
	User    entity.AuthUser
}

type ReviewLeadOutput struct {
	Review *entity.LeadReview `json:"review"`
}

type LeadDetailsOutput struct {
	Lead         *entity.Lead         `json:"lead"`
	Review       *entity.LeadReview   `json:"review"`
	Professional *ProfessionalSummary `json:"professional"`
}

// ProfessionalSummary es la vista pública del profesional asignado.
type ProfessionalSummary struct {
	UserID               string   `json:"user_id"`
	FullName             string   `json:"full_name"`
	Profession           string   `json:"profession"`
	Whatsapp             string   `json:"whatsapp"`
	CalificacionPromedio *float64 `json:"calificacion_promedio"`
	AreasServicio        []string `json:"areas_servicio,omitempty"`
	DescripcionPerfil    string   `json:"descripcion_perfil,omitempty"`
}

type DeadlineSweepOutput struct {
	Processed int `json:"processed"`
}

// CallbackInput son los datos que recibe /auth/callback.
type CallbackInput struct {
	Code         string
	Next         string
	CodeVerifier string
	CookieHeader string
	Referer      string
	Origin       string
}

// CallbackOutput indica a dónde redirigir y, si hubo login, la sesión a guardar.
type CallbackOutput struct {
	Redirect string
	Session  *entity.Session
}

type ReverseGeocodeInput struct {
	UserID string  `json:"user_id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Caller entity.AuthUser
}

type ReverseGeocodeOutput struct {
	City        string `json:"city"`
	SubCityZone string `json:"sub_city_zone"`
	PostalCode  string `json:"postal_code"`
	Address     string `json:"address"`
	Provider    string `json:"provider"`
}

type PaymentInput struct {
	Action          string `json:"action"`
	PaymentMethodID string `json:"paymentMethodId"`
	Amount          int64  `json:"amount"`
	PaymentIntentID string `json:"paymentIntentId"`
	User            entity.AuthUser
}

// PaymentOutput solo serializa los campos que aplican a cada acción.
type PaymentOutput struct {
	Success         bool   `json:"success"`
	ClientSecret    string `json:"clientSecret,omitempty"`
	CustomerID      string `json:"customerId,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	Status          string `json:"status,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
}

type AIAssistantInput struct {
	Query string `json:"query"`
}

type TechnicalInfo struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Technologies   []string `json:"technologies"`
	Considerations []string `json:"considerations"`
	KitOptions     []string `json:"kit_options"`
}

type AIAssistantOutput struct {
	ServiceCategory     string                `json:"service_category"`
	TechnicalInfo       TechnicalInfo         `json:"technical_info"`
	Recommendations     []ProfessionalSummary `json:"recommendations"`
	EstimatedPriceRange string                `json:"estimated_price_range"`
	Diagnosis           string                `json:"diagnosis"`
}

type AISearchInput struct {
	ProblemDescription string `json:"problemDescription"`
}

type ServiceMatch struct {
	ID          string  `json:"id"`
	ServiceName string  `json:"service_name"`
	Discipline  string  `json:"discipline"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
}

type AISearchOutput struct {
	DetectedService *ServiceMatch  `json:"detected_service"`
	Alternatives    []ServiceMatch `json:"alternatives"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	PreFilledData   map[string]any `json:"pre_filled_data"`
}
