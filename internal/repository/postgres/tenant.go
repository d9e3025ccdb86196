package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	apperrors "github.com/wardline/ward-api/pkg/errors"
)

type tenantRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	query := `
		INSERT INTO shared.tenants (
			id, name, schema_name, status, api_key_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Schema,
		tenant.Status,
		tenant.APIKeyHash,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.DuplicateTenant(tenant.ID)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *tenantRepository) Get(ctx context.Context, id string) (*model.Tenant, error) {
	query := `
		SELECT id, name, schema_name, status, api_key_hash, created_at, updated_at
		FROM shared.tenants
		WHERE id = $1
	`
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.UnknownTenant(id)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

func (r *tenantRepository) UpdateStatus(ctx context.Context, id string, status model.TenantStatus) error {
	query := `
		UPDATE shared.tenants
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update tenant status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.UnknownTenant(id)
	}
	return nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*model.Tenant, error) {
	query := `
		SELECT id, name, schema_name, status, api_key_hash, created_at, updated_at
		FROM shared.tenants
		ORDER BY created_at ASC
	`
	var tenants []*model.Tenant
	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}
