package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

var ErrEmptyResponse = errors.New("gemini devolvió una respuesta vacía")

// Client envuelve el SDK de Gemini con la configuración de generación usada por el asistente.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY es requerida")
	}
	if model == "" {
		model = DefaultModel
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("falla al crear cliente gemini: %w", err)
	}

	return &Client{client: c, model: model}, nil
}

// Generate envía un prompt de texto y devuelve el texto generado.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		TopK:            genai.Ptr[float32](20),
		TopP:            genai.Ptr[float32](0.8),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
