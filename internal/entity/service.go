package entity

import "context"

// CatalogService es una fila de service_catalog.
type CatalogService struct {
	ID             string   `json:"id"`
	ServiceName    string   `json:"service_name"`
	Discipline     string   `json:"discipline"`
	MinPrice       float64  `json:"min_price"`
	MaxPrice       *float64 `json:"max_price"`
	Description    string   `json:"description,omitempty"`
	CompletedCount int      `json:"completed_count"`
}

// EffectiveMax devuelve max_price o, si falta, 1.5 veces el mínimo.
func (s CatalogService) EffectiveMax() float64 {
	if s.MaxPrice != nil {
		return *s.MaxPrice
	}
	return s.MinPrice * 1.5
}

type ServiceCatalogRepositoryInterface interface {
	ListActive(ctx context.Context, limit int) ([]*CatalogService, error)
	ListActiveByDiscipline(ctx context.Context, discipline string, limit int) ([]*CatalogService, error)
}
