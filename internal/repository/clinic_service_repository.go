package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

const clinicServiceColumns = `id, name, description, duration_minutes, active, created_at, updated_at`

// ClinicServiceRepository reads bookable services.
type ClinicServiceRepository struct {
	db *sqlx.DB
}

// NewClinicServiceRepository creates a new instance of ClinicServiceRepository.
func NewClinicServiceRepository(db *sqlx.DB) *ClinicServiceRepository {
	return &ClinicServiceRepository{db: db}
}

// List returns services ordered by name.
func (r *ClinicServiceRepository) List(ctx context.Context, activeOnly bool) ([]models.ClinicService, error) {
	query := `SELECT ` + clinicServiceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var services []models.ClinicService
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// FindByID returns a service by identifier.
func (r *ClinicServiceRepository) FindByID(ctx context.Context, id string) (*models.ClinicService, error) {
	const query = `SELECT ` + clinicServiceColumns + ` FROM services WHERE id = $1 LIMIT 1`
	var svc models.ClinicService
	if err := r.db.GetContext(ctx, &svc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return &svc, nil
}
