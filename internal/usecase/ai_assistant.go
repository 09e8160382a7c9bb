package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const (
	CategoryCameras      = "cámaras de seguridad"
	CategoryAirCondition = "aire acondicionado"
	CategoryPlumbing     = "plomería"
	CategoryElectricity  = "electricidad"
	CategoryGeneral      = "servicio general"
)

const recommendationLimit = 5

type serviceKnowledge struct {
	Category       string
	Technologies   []string
	Considerations []string
	KitOptions     []string
	PriceRange     string
}

var knowledgeBase = map[string]serviceKnowledge{
	CategoryCameras: {
		Category:     "Seguridad Electrónica",
		Technologies: []string{"Cámaras IP", "Cámaras Analógicas", "Sistemas Híbridos", "DVR/NVR"},
		Considerations: []string{
			"Resolución de imagen (1080p, 4K, etc.)",
			"Visión nocturna con infrarrojos",
			"Ángulo de visión y cobertura",
			"Almacenamiento en la nube vs local",
			"Integración con aplicaciones móviles",
		},
		KitOptions: []string{
			"Kit básico: 4 cámaras + DVR + cables",
			"Kit premium: 8 cámaras IP + NVR + almacenamiento",
			"Kit inalámbrico: Cámaras WiFi + grabador",
		},
		PriceRange: "$3,000 - $15,000 MXN",
	},
	CategoryAirCondition: {
		Category:     "HVAC",
		Technologies: []string{"Minisplit", "Aire Central", "Ventiladores de Techo", "Sistemas VRV"},
		Considerations: []string{
			"Capacidad en BTU según el tamaño del espacio",
			"Eficiencia energética (SEER rating)",
			"Tipo de refrigerante (R-410A, R-32)",
			"Instalación de ductos y drenajes",
			"Mantenimiento preventivo",
		},
		KitOptions: []string{
			"Instalación básica de minisplit",
			"Kit completo con cableado y drenaje",
			"Mantenimiento anual incluido",
		},
		PriceRange: "$2,500 - $8,000 MXN",
	},
	CategoryPlumbing: {
		Category:     "Plomería",
		Technologies: []string{"Tubería PVC", "Tubería de Cobre", "Válvulas de Esfera", "Filtros de Agua"},
		Considerations: []string{
			"Presión del agua y flujo",
			"Material de tuberías según uso",
			"Accesibilidad para mantenimiento",
			"Códigos de construcción locales",
			"Sistemas de drenaje",
		},
		PriceRange: "$800 - $5,000 MXN",
	},
	CategoryElectricity: {
		Category:     "Electricidad",
		Technologies: []string{"Cableado", "Interruptores", "Enchufes GFCI", "Iluminación LED"},
		Considerations: []string{
			"Capacidad del panel eléctrico",
			"Códigos eléctricos (NOM-001-SEDE)",
			"Protección contra sobrecargas",
			"Cableado según uso y ubicación",
			"Certificación de instalaciones",
		},
		PriceRange: "$1,200 - $8,000 MXN",
	},
}

// DetectServiceCategory clasifica la consulta por palabras clave, sin importar acentos ni mayúsculas.
func DetectServiceCategory(query string) string {
	q := foldText(query)
	switch {
	case containsAny(q, "cámara", "seguridad"):
		return CategoryCameras
	case containsAny(q, "aire", "acondicionado", "minisplit", "hvac"):
		return CategoryAirCondition
	case containsAny(q, "plomería", "tubería", "agua"):
		return CategoryPlumbing
	case containsAny(q, "electricidad", "electricista", "cableado", "luz"):
		return CategoryElectricity
	default:
		return CategoryGeneral
	}
}

type AIAssistantUseCase struct {
	Professionals entity.ProfessionalRepositoryInterface
	LLM           LanguageModel
	Metrics       Metrics
	Logger        *zap.Logger
}

func NewAIAssistantUseCase(professionals entity.ProfessionalRepositoryInterface, llm LanguageModel, metrics Metrics, logger *zap.Logger) *AIAssistantUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIAssistantUseCase{Professionals: professionals, LLM: llm, Metrics: metrics, Logger: logger}
}

func (uc *AIAssistantUseCase) Execute(ctx context.Context, input AIAssistantInput) (*AIAssistantOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domainErr(CodeValidation, "La consulta es obligatoria.")
	}

	category := DetectServiceCategory(query)
	kb, known := knowledgeBase[category]

	out := &AIAssistantOutput{
		ServiceCategory: "Servicio General",
		TechnicalInfo: TechnicalInfo{
			Title:          "Información sobre el servicio solicitado",
			Description:    fmt.Sprintf("Para %s, es importante considerar varios aspectos técnicos y tecnológicos que te ayudarán a tomar la mejor decisión.", category),
			Technologies:   []string{"Consulte con nuestro especialista"},
			Considerations: []string{"Análisis personalizado requerido"},
			KitOptions:     []string{},
		},
		EstimatedPriceRange: "Consulte precio con el técnico",
	}
	if known {
		out.ServiceCategory = kb.Category
		out.TechnicalInfo.Title = "Información sobre " + kb.Category
		out.TechnicalInfo.Technologies = kb.Technologies
		out.TechnicalInfo.Considerations = kb.Considerations
		if kb.KitOptions != nil {
			out.TechnicalInfo.KitOptions = kb.KitOptions
		}
		out.EstimatedPriceRange = kb.PriceRange
	}

	out.Recommendations = uc.recommend(ctx, category)
	out.Diagnosis = uc.diagnose(ctx, query, out)

	return out, nil
}

// recommend devuelve los profesionales activos mejor calificados que atienden la categoría.
// Un error de base de datos deja la lista vacía en lugar de fallar la consulta.
func (uc *AIAssistantUseCase) recommend(ctx context.Context, category string) []ProfessionalSummary {
	pros, err := uc.Professionals.ListTopRated(ctx, recommendationLimit*5)
	if err != nil {
		uc.Logger.Warn("⚠️ No se pudieron obtener profesionales recomendados", zap.Error(err))
		return []ProfessionalSummary{}
	}

	out := make([]ProfessionalSummary, 0, recommendationLimit)
	for _, p := range pros {
		if category != CategoryGeneral && !servesCategory(p.AreasServicio, category) {
			continue
		}
		out = append(out, *summarize(p))
		if len(out) == recommendationLimit {
			break
		}
	}
	return out
}

func servesCategory(areas []string, category string) bool {
	cat := foldText(category)
	firstWord, _, _ := strings.Cut(cat, " ")
	for _, area := range areas {
		a := foldText(area)
		if a == "" {
			continue
		}
		if strings.Contains(a, firstWord) || strings.Contains(cat, a) {
			return true
		}
	}
	return false
}

func (uc *AIAssistantUseCase) diagnose(ctx context.Context, query string, out *AIAssistantOutput) string {
	if uc.LLM == nil {
		return out.TechnicalInfo.Description
	}

	prompt := fmt.Sprintf(`Eres un técnico experto de Sumee App, una plataforma mexicana de servicios para el hogar.
El cliente pregunta: "%s"
Categoría detectada: %s. Rango de precio de referencia: %s.
Da un diagnóstico breve (máximo 3 oraciones, en español) con la causa probable y el siguiente paso recomendado.`,
		query, out.ServiceCategory, out.EstimatedPriceRange)

	text, err := uc.LLM.Generate(ctx, prompt)
	if err != nil {
		uc.Metrics.IntegrationError("gemini")
		uc.Logger.Warn("⚠️ Gemini no respondió, usando descripción base", zap.Error(err))
		return out.TechnicalInfo.Description
	}
	return text
}
