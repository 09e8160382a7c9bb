package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const (
	catalogPromptLimit  = 50
	fallbackConfidence  = 0.6
	defaultDiscipline   = "plomeria"
	defaultUrgency      = "media"
	minDescriptionRunes = 5
)

// fallbackKeywords se evalúan en este orden; la primera disciplina con coincidencia gana.
var fallbackKeywords = []struct {
	Discipline string
	Keywords   []string
}{
	{"plomeria", []string{"fuga", "agua", "plomero", "tubería", "baño", "cocina", "gotera"}},
	{"electricidad", []string{"luz", "lámpara", "electricista", "cable", "cortocircuito"}},
	{"aire-acondicionado", []string{"aire", "clima", "no enfría", "refrigeración"}},
}

type geminiSearchResult struct {
	ServiceName     string         `json:"service_name"`
	Discipline      string         `json:"discipline"`
	Confidence      float64        `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	MatchedKeywords []string       `json:"matched_keywords"`
	Urgency         string         `json:"urgency"`
	PriceEstimate   *priceEstimate `json:"price_estimate"`
	Alternatives    []string       `json:"alternatives"`
}

type priceEstimate struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type AISearchUseCase struct {
	Catalog entity.ServiceCatalogRepositoryInterface
	LLM     LanguageModel
	Metrics Metrics
	Logger  *zap.Logger
}

func NewAISearchUseCase(catalog entity.ServiceCatalogRepositoryInterface, llm LanguageModel, metrics Metrics, logger *zap.Logger) *AISearchUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AISearchUseCase{Catalog: catalog, LLM: llm, Metrics: metrics, Logger: logger}
}

func (uc *AISearchUseCase) Execute(ctx context.Context, input AISearchInput) (*AISearchOutput, error) {
	desc := strings.TrimSpace(input.ProblemDescription)
	if len([]rune(desc)) < minDescriptionRunes {
		return nil, domainErr(CodeValidation, "La descripción es muy corta. Por favor, describe tu problema con más detalle.")
	}

	if uc.LLM == nil {
		return uc.fallback(ctx, desc)
	}

	services, err := uc.Catalog.ListActive(ctx, catalogPromptLimit)
	if err != nil || len(services) == 0 {
		if err != nil {
			uc.Logger.Warn("⚠️ No se pudo leer el catálogo, usando fallback", zap.Error(err))
		}
		return uc.fallback(ctx, desc)
	}

	text, err := uc.LLM.Generate(ctx, buildSearchPrompt(desc, services))
	if err != nil {
		uc.Metrics.IntegrationError("gemini")
		uc.Logger.Warn("⚠️ Gemini falló, usando fallback", zap.Error(err))
		return uc.fallback(ctx, desc)
	}

	var result geminiSearchResult
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &result); err != nil {
		uc.Logger.Warn("⚠️ Respuesta de Gemini no es JSON válido, usando fallback", zap.Error(err))
		return uc.fallback(ctx, desc)
	}

	detected, alternatives := matchService(services, result)
	if detected == nil {
		return uc.fallback(ctx, desc)
	}

	confidence := result.Confidence
	if confidence <= 0 {
		confidence = 0.8
	}
	reasoning := result.Reasoning
	if reasoning == "" {
		reasoning = fmt.Sprintf("Detecté que necesitas un servicio de %s. \"%s\" es el más adecuado para tu problema.",
			detected.Discipline, detected.ServiceName)
	}
	urgency := result.Urgency
	if urgency == "" {
		urgency = defaultUrgency
	}
	price := map[string]float64{"min": detected.MinPrice, "max": detected.EffectiveMax()}
	if result.PriceEstimate != nil {
		price = map[string]float64{"min": result.PriceEstimate.Min, "max": result.PriceEstimate.Max}
	}

	return &AISearchOutput{
		DetectedService: toMatch(detected),
		Alternatives:    alternatives,
		Confidence:      confidence,
		Reasoning:       reasoning,
		PreFilledData: map[string]any{
			"servicio":        detected.ServiceName,
			"disciplina":      detected.Discipline,
			"descripcion":     desc,
			"urgencia":        urgency,
			"precio_estimado": price,
		},
	}, nil
}

// matchService busca primero el nombre exacto y luego la disciplina; las alternativas
// son hasta 3 servicios de la misma disciplina.
func matchService(services []*entity.CatalogService, r geminiSearchResult) (*entity.CatalogService, []ServiceMatch) {
	var detected *entity.CatalogService

	name := strings.ToLower(strings.TrimSpace(r.ServiceName))
	if name != "" {
		for _, s := range services {
			if strings.ToLower(s.ServiceName) == name {
				detected = s
				break
			}
		}
	}
	if detected == nil && r.Discipline != "" {
		for _, s := range services {
			if s.Discipline == r.Discipline {
				detected = s
				break
			}
		}
	}
	if detected == nil {
		return nil, nil
	}

	alternatives := []ServiceMatch{}
	for _, s := range services {
		if s.Discipline != detected.Discipline || s.ID == detected.ID {
			continue
		}
		alternatives = append(alternatives, *toMatch(s))
		if len(alternatives) == 3 {
			break
		}
	}
	return detected, alternatives
}

func (uc *AISearchUseCase) fallback(ctx context.Context, desc string) (*AISearchOutput, error) {
	discipline := FallbackDiscipline(desc)

	services, err := uc.Catalog.ListActiveByDiscipline(ctx, discipline, 5)
	if err != nil {
		uc.Logger.Warn("⚠️ Error consultando catálogo en fallback", zap.Error(err))
	}
	if len(services) == 0 {
		return &AISearchOutput{
			Alternatives: []ServiceMatch{},
			Confidence:   0,
			Reasoning:    "No pude identificar el servicio que necesitas. Por favor, intenta ser más específico.",
			PreFilledData: map[string]any{
				"descripcion": desc,
				"urgencia":    defaultUrgency,
			},
		}, nil
	}

	first := services[0]
	alternatives := []ServiceMatch{}
	for _, s := range services[1:] {
		alternatives = append(alternatives, *toMatch(s))
		if len(alternatives) == 3 {
			break
		}
	}

	return &AISearchOutput{
		DetectedService: toMatch(first),
		Alternatives:    alternatives,
		Confidence:      fallbackConfidence,
		Reasoning:       fmt.Sprintf("Basado en tu descripción, te sugiero un servicio de %s.", discipline),
		PreFilledData: map[string]any{
			"servicio":        first.ServiceName,
			"disciplina":      first.Discipline,
			"descripcion":     desc,
			"urgencia":        defaultUrgency,
			"precio_estimado": map[string]float64{"min": first.MinPrice, "max": first.EffectiveMax()},
		},
	}, nil
}

// FallbackDiscipline detecta la disciplina por palabras clave; plomería por defecto.
func FallbackDiscipline(desc string) string {
	text := foldText(desc)
	for _, fk := range fallbackKeywords {
		if containsAny(text, fk.Keywords...) {
			return fk.Discipline
		}
	}
	return defaultDiscipline
}

func buildSearchPrompt(desc string, services []*entity.CatalogService) string {
	var list strings.Builder
	for i, s := range services {
		fmt.Fprintf(&list, "%d. %s (%s) - Desde $%.0f\n", i+1, s.ServiceName, s.Discipline, s.MinPrice)
	}

	return fmt.Sprintf(`Eres un asistente experto de Sumee App, una plataforma mexicana que conecta clientes con técnicos verificados.

CONTEXTO:
El cliente describe: "%s"

SERVICIOS DISPONIBLES (ORDENADOS POR RELEVANCIA):
%s
INSTRUCCIONES:
1. Selecciona el servicio MÁS ESPECÍFICO que coincida con la necesidad del cliente; no generalices.
2. Busca las palabras clave del problema (objeto, acción) en el nombre EXACTO del servicio.
3. Si no hay coincidencia exacta, elige el más similar dentro de la misma disciplina.
4. Urgencia: "alta" (urgente, no funciona, roto), "media" (pronto, esta semana), "baja" (sin prisa).
5. Estima el precio según el servicio seleccionado.

RESPONDE SOLO CON JSON (sin markdown):
{
  "service_name": "Nombre EXACTO del servicio de la lista",
  "discipline": "disciplina del servicio",
  "confidence": 0.95,
  "reasoning": "Por qué este servicio es el adecuado",
  "matched_keywords": ["palabra1"],
  "urgency": "alta|media|baja",
  "price_estimate": {"min": 500, "max": 800},
  "alternatives": ["Servicio alternativo"]
}`, desc, list.String())
}

// stripCodeFences quita los bloques ```json ... ``` que a veces agrega el modelo.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func toMatch(s *entity.CatalogService) *ServiceMatch {
	return &ServiceMatch{
		ID:          s.ID,
		ServiceName: s.ServiceName,
		Discipline:  s.Discipline,
		MinPrice:    s.MinPrice,
		MaxPrice:    s.EffectiveMax(),
	}
}
