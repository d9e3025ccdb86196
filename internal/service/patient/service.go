package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/security"
)

// Service manages patients inside one tenant namespace. Contact details
// are encrypted before they reach the repository.
type Service struct {
	repo      repository.PatientRepository
	encryptor security.Encryptor
}

func NewService(repo repository.PatientRepository, encryptor security.Encryptor) *Service {
	return &Service{
		repo:      repo,
		encryptor: encryptor,
	}
}

func (s *Service) CreatePatient(ctx context.Context, sess repository.Querier, patient *model.Patient) (*model.Patient, error) {
	if patient.FirstName == "" || patient.LastName == "" {
		return nil, apperrors.NewBadRequest("patient name is required", nil)
	}

	if patient.Email != "" && s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt([]byte(patient.Email))
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		patient.EncryptedEmail = encrypted
	}

	if err := s.repo.Create(ctx, sess, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, sess repository.Querier, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	s.decryptEmail(patient)
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, sess repository.Querier) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		s.decryptEmail(p)
	}
	return patients, nil
}

func (s *Service) decryptEmail(p *model.Patient) {
	if len(p.EncryptedEmail) == 0 || s.encryptor == nil {
		return
	}
	// Undecryptable history is surfaced as an empty email, not an error.
	if plain, err := s.encryptor.Decrypt(p.EncryptedEmail); err == nil {
		p.Email = string(plain)
	}
}
