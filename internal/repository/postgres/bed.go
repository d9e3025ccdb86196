package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	apperrors "github.com/wardline/ward-api/pkg/errors"
)

// Table names are unqualified: statements resolve inside the namespace the
// scoped session is pinned to, never a caller-chosen schema.

type departmentRepository struct{}

func NewDepartmentRepository() repository.DepartmentRepository {
	return &departmentRepository{}
}

func (r *departmentRepository) Create(ctx context.Context, q repository.Querier, dept *model.Department) error {
	query := `
		INSERT INTO departments (id, name, floor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	dept.ID = uuid.New()
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = time.Now()

	_, err := q.ExecContext(ctx, query,
		dept.ID,
		dept.Name,
		dept.Floor,
		dept.CreatedAt,
		dept.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Department, error) {
	query := `
		SELECT id, name, floor, created_at, updated_at
		FROM departments
		WHERE id = $1
	`
	var dept model.Department
	if err := q.GetContext(ctx, &dept, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("department", err)
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context, q repository.Querier) ([]*model.Department, error) {
	query := `
		SELECT id, name, floor, created_at, updated_at
		FROM departments
		ORDER BY name ASC
	`
	var depts []*model.Department
	if err := q.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}

type bedRepository struct{}

func NewBedRepository() repository.BedRepository {
	return &bedRepository{}
}

const bedColumns = `id, department_id, number, status, maintenance_pending, created_at, updated_at`

func (r *bedRepository) CreateBed(ctx context.Context, q repository.Querier, bed *model.Bed) error {
	query := `
		INSERT INTO beds (
			id, department_id, number, status, maintenance_pending,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	bed.ID = uuid.New()
	if bed.Status == "" {
		bed.Status = model.BedStatusAvailable
	}
	bed.CreatedAt = time.Now()
	bed.UpdatedAt = time.Now()

	_, err := q.ExecContext(ctx, query,
		bed.ID,
		bed.DepartmentID,
		bed.Number,
		bed.Status,
		bed.MaintenancePending,
		bed.CreatedAt,
		bed.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.NewBadRequest(
				fmt.Sprintf("bed %s already exists in department", bed.Number), err)
		}
		return fmt.Errorf("failed to create bed: %w", err)
	}
	return nil
}

func (r *bedRepository) GetBed(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Bed, error) {
	query := `SELECT ` + bedColumns + ` FROM beds WHERE id = $1`

	var bed model.Bed
	if err := q.GetContext(ctx, &bed, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("bed", err)
		}
		return nil, fmt.Errorf("failed to get bed: %w", err)
	}
	return &bed, nil
}

// GetBedForUpdate locks the bed row for the rest of the transaction. Assign
// and discharge both take this lock first, so status flips on one bed are
// serialized even before the exclusion constraint has its say.
func (r *bedRepository) GetBedForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Bed, error) {
	query := `SELECT ` + bedColumns + ` FROM beds WHERE id = $1 FOR UPDATE`

	var bed model.Bed
	if err := tx.GetContext(ctx, &bed, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("bed", err)
		}
		return nil, fmt.Errorf("failed to lock bed: %w", err)
	}
	return &bed, nil
}

// ListBeds filters by department when departmentID is set; the zero UUID
// lists the whole namespace.
func (r *bedRepository) ListBeds(ctx context.Context, q repository.Querier, departmentID uuid.UUID) ([]*model.Bed, error) {
	var beds []*model.Bed
	if departmentID == uuid.Nil {
		query := `SELECT ` + bedColumns + ` FROM beds ORDER BY number ASC`
		if err := q.SelectContext(ctx, &beds, query); err != nil {
			return nil, fmt.Errorf("failed to list beds: %w", err)
		}
		return beds, nil
	}

	query := `SELECT ` + bedColumns + ` FROM beds WHERE department_id = $1 ORDER BY number ASC`
	if err := q.SelectContext(ctx, &beds, query, departmentID); err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}
	return beds, nil
}

func (r *bedRepository) UpdateBedStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status model.BedStatus, maintenancePending bool) error {
	query := `
		UPDATE beds
		SET status = $1, maintenance_pending = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := q.ExecContext(ctx, query, status, maintenancePending, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update bed status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("bed", nil)
	}
	return nil
}
