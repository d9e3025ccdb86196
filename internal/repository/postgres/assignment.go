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

const assignmentColumns = `id, bed_id, patient_id, admission_time, discharge_time, status, created_at, updated_at`

// InsertAssignment writes the assignment row. The bed_assignments table
// carries a temporal exclusion constraint on (bed_id, interval) over active
// rows; a concurrent overlapping insert loses here no matter what the
// application-level check saw.
func (r *bedRepository) InsertAssignment(ctx context.Context, tx *sqlx.Tx, a *model.BedAssignment) error {
	query := `
		INSERT INTO bed_assignments (
			id, bed_id, patient_id, admission_time, discharge_time,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	a.ID = uuid.New()
	a.Status = model.AssignmentStatusActive
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		a.ID,
		a.BedID,
		a.PatientID,
		a.AdmissionTime,
		a.DischargeTime,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if IsExclusionViolation(err) {
			return apperrors.OverlapConflict(err)
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (r *bedRepository) GetAssignment(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.BedAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM bed_assignments WHERE id = $1`

	var a model.BedAssignment
	if err := q.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("assignment", err)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

func (r *bedRepository) GetAssignmentForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.BedAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM bed_assignments WHERE id = $1 FOR UPDATE`

	var a model.BedAssignment
	if err := tx.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("assignment", err)
		}
		return nil, fmt.Errorf("failed to lock assignment: %w", err)
	}
	return &a, nil
}

// ActiveAssignment returns the open assignment on a bed, or nil.
func (r *bedRepository) ActiveAssignment(ctx context.Context, q repository.Querier, bedID uuid.UUID) (*model.BedAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM bed_assignments
		WHERE bed_id = $1 AND status = $2
		ORDER BY admission_time DESC
		LIMIT 1
	`
	var a model.BedAssignment
	err := q.GetContext(ctx, &a, query, bedID, model.AssignmentStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return &a, nil
}

// OverlappingActive queries the assignment history, not the status cache:
// the history is authoritative. A nil end means an open-ended interval.
func (r *bedRepository) OverlappingActive(ctx context.Context, q repository.Querier, bedID uuid.UUID, start time.Time, end *time.Time) ([]*model.BedAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM bed_assignments
		WHERE bed_id = $1
		AND status = $2
		AND (discharge_time IS NULL OR discharge_time > $3)
	`
	args := []interface{}{bedID, model.AssignmentStatusActive, start}

	if end != nil {
		query += ` AND admission_time < $4`
		args = append(args, *end)
	}

	var assignments []*model.BedAssignment
	if err := q.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query overlapping assignments: %w", err)
	}
	return assignments, nil
}

func (r *bedRepository) CloseAssignment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, dischargeTime time.Time) error {
	query := `
		UPDATE bed_assignments
		SET discharge_time = $1, status = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := tx.ExecContext(ctx, query,
		dischargeTime,
		model.AssignmentStatusDischarged,
		time.Now(),
		id,
		model.AssignmentStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to close assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.AssignmentNotActive()
	}
	return nil
}
