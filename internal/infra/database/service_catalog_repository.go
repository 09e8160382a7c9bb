package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const catalogSelect = `
	SELECT id, service_name, discipline, min_price, max_price, COALESCE(description, ''), completed_count
	  FROM service_catalog
	 WHERE is_active`

type ServiceCatalogRepository struct {
	DB *sql.DB
}

func NewServiceCatalogRepository(db *sql.DB) *ServiceCatalogRepository {
	return &ServiceCatalogRepository{DB: db}
}

// ListActive ordena por servicios más solicitados; es la lista que se envía al modelo.
func (r *ServiceCatalogRepository) ListActive(ctx context.Context, limit int) ([]*entity.CatalogService, error) {
	return r.list(ctx, catalogSelect+` ORDER BY completed_count DESC, service_name LIMIT $1`, limit)
}

func (r *ServiceCatalogRepository) ListActiveByDiscipline(ctx context.Context, discipline string, limit int) ([]*entity.CatalogService, error) {
	return r.list(ctx, catalogSelect+` AND discipline = $1 ORDER BY completed_count DESC, min_price LIMIT $2`, discipline, limit)
}

func (r *ServiceCatalogRepository) list(ctx context.Context, query string, args ...any) ([]*entity.CatalogService, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error consultando catálogo: %w", err)
	}
	defer rows.Close()

	var out []*entity.CatalogService
	for rows.Next() {
		var (
			s        entity.CatalogService
			maxPrice sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.ServiceName, &s.Discipline, &s.MinPrice, &maxPrice, &s.Description, &s.CompletedCount); err != nil {
			return nil, err
		}
		if maxPrice.Valid {
			v := maxPrice.Float64
			s.MaxPrice = &v
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
