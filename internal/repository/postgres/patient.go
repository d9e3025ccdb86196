package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	apperrors "github.com/wardline/ward-api/pkg/errors"
)

type patientRepository struct{}

func NewPatientRepository() repository.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(ctx context.Context, q repository.Querier, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, encrypted_email,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	patient.ID = uuid.New()
	if patient.Status == "" {
		patient.Status = "active"
	}
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := q.ExecContext(ctx, query,
		patient.ID,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.EncryptedEmail,
		patient.Status,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, first_name, last_name, date_of_birth, encrypted_email,
			   status, created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	if err := q.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, q repository.Querier) ([]*model.Patient, error) {
	query := `
		SELECT id, first_name, last_name, date_of_birth, encrypted_email,
			   status, created_at, updated_at
		FROM patients
		ORDER BY last_name ASC, first_name ASC
	`
	var patients []*model.Patient
	if err := q.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
