package bed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/metrics"
)

// Session is the slice of a tenant-scoped session the engine needs:
// plain queries, transactions and the identity of the tenant it is
// pinned to.
type Session interface {
	repository.Querier
	Tenant() *model.Tenant
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// Service is the resource assignment engine. Every transition runs inside
// one transaction on the caller's scoped session: the assignment row and
// the bed's cached status commit together or not at all, so no intermediate
// state is ever observable. Bed status is never set directly by callers;
// the maintenance path is the single administrative exception.
type Service struct {
	beds        repository.BedRepository
	departments repository.DepartmentRepository
	outbox      repository.OutboxRepository
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewService(
	beds repository.BedRepository,
	departments repository.DepartmentRepository,
	outbox repository.OutboxRepository,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		beds:        beds,
		departments: departments,
		outbox:      outbox,
		metrics:     m,
		logger:      log,
	}
}

func (s *Service) CreateDepartment(ctx context.Context, sess Session, dept *model.Department) error {
	if dept.Name == "" {
		return apperrors.NewBadRequest("department name is required", nil)
	}
	return s.departments.Create(ctx, sess, dept)
}

func (s *Service) ListDepartments(ctx context.Context, sess Session) ([]*model.Department, error) {
	return s.departments.List(ctx, sess)
}

func (s *Service) CreateBed(ctx context.Context, sess Session, bed *model.Bed) error {
	if bed.Number == "" {
		return apperrors.NewBadRequest("bed number is required", nil)
	}
	if _, err := s.departments.Get(ctx, sess, bed.DepartmentID); err != nil {
		return err
	}
	return s.beds.CreateBed(ctx, sess, bed)
}

func (s *Service) GetBed(ctx context.Context, sess Session, id uuid.UUID) (*model.Bed, error) {
	return s.beds.GetBed(ctx, sess, id)
}

func (s *Service) ListBeds(ctx context.Context, sess Session, departmentID uuid.UUID) ([]*model.Bed, error) {
	return s.beds.ListBeds(ctx, sess, departmentID)
}

// ActiveAssignment answers "who is in bed X right now", or nil when empty.
func (s *Service) ActiveAssignment(ctx context.Context, sess Session, bedID uuid.UUID) (*model.BedAssignment, error) {
	if _, err := s.beds.GetBed(ctx, sess, bedID); err != nil {
		return nil, err
	}
	return s.beds.ActiveAssignment(ctx, sess, bedID)
}

// Assign admits a patient to a bed from admissionTime onward. The cached
// status gate and the history check both run under the bed's row lock, but
// the exclusion constraint on bed_assignments is what actually decides a
// concurrent race; the checks here only produce the friendly error first.
func (s *Service) Assign(ctx context.Context, sess Session, bedID, patientID uuid.UUID, admissionTime time.Time) (*model.BedAssignment, error) {
	if admissionTime.IsZero() {
		return nil, apperrors.InvalidInterval("admission time is required")
	}

	assignment := &model.BedAssignment{
		BedID:         bedID,
		PatientID:     patientID,
		AdmissionTime: admissionTime,
	}

	err := sess.WithTx(ctx, func(tx *sqlx.Tx) error {
		bed, err := s.beds.GetBedForUpdate(ctx, tx, bedID)
		if err != nil {
			return err
		}
		if bed.Status != model.BedStatusAvailable {
			return apperrors.BedNotAvailable(string(bed.Status))
		}

		overlapping, err := s.beds.OverlappingActive(ctx, tx, bedID, admissionTime, nil)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperrors.OverlapConflict(nil)
		}

		if err := s.beds.InsertAssignment(ctx, tx, assignment); err != nil {
			return err
		}
		if err := s.beds.UpdateBedStatus(ctx, tx, bedID, model.BedStatusOccupied, bed.MaintenancePending); err != nil {
			return err
		}

		if err := s.emitEvent(ctx, tx, sess, model.EventAssignmentCreated, assignment); err != nil {
			return err
		}
		return s.emitStatusEvent(ctx, tx, sess, bedID, model.BedStatusOccupied)
	})
	if err != nil {
		if errors.Is(err, apperrors.OverlapConflict(nil)) {
			s.countConflict()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssignmentsCreated.Inc()
	}
	s.logger.Info("bed assigned",
		"tenant_id", sess.Tenant().ID,
		"bed_id", bedID.String(),
		"assignment_id", assignment.ID.String())
	return assignment, nil
}

// Discharge closes the interval at dischargeTime and returns the bed to
// available, or to maintenance when a hold was placed while occupied.
func (s *Service) Discharge(ctx context.Context, sess Session, assignmentID uuid.UUID, dischargeTime time.Time) (*model.BedAssignment, error) {
	if dischargeTime.IsZero() {
		return nil, apperrors.InvalidInterval("discharge time is required")
	}

	var assignment *model.BedAssignment
	err := sess.WithTx(ctx, func(tx *sqlx.Tx) error {
		a, err := s.beds.GetAssignmentForUpdate(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if !a.Active() {
			return apperrors.AssignmentNotActive()
		}
		if dischargeTime.Before(a.AdmissionTime) {
			return apperrors.InvalidInterval("discharge time precedes admission time")
		}

		bed, err := s.beds.GetBedForUpdate(ctx, tx, a.BedID)
		if err != nil {
			return err
		}

		if err := s.beds.CloseAssignment(ctx, tx, a.ID, dischargeTime); err != nil {
			return err
		}

		next := model.BedStatusAvailable
		if bed.MaintenancePending {
			next = model.BedStatusMaintenance
		}
		if err := s.beds.UpdateBedStatus(ctx, tx, bed.ID, next, false); err != nil {
			return err
		}

		a.DischargeTime = &dischargeTime
		a.Status = model.AssignmentStatusDischarged
		assignment = a

		if err := s.emitEvent(ctx, tx, sess, model.EventAssignmentClosed, a); err != nil {
			return err
		}
		return s.emitStatusEvent(ctx, tx, sess, bed.ID, next)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssignmentsClosed.Inc()
	}
	s.logger.Info("bed assignment discharged",
		"tenant_id", sess.Tenant().ID,
		"assignment_id", assignmentID.String())
	return assignment, nil
}

// SetMaintenance toggles the administrative maintenance state. Turning it
// on requires an empty bed; use HoldMaintenance to queue it behind an
// active assignment.
func (s *Service) SetMaintenance(ctx context.Context, sess Session, bedID uuid.UUID, on bool) error {
	return sess.WithTx(ctx, func(tx *sqlx.Tx) error {
		bed, err := s.beds.GetBedForUpdate(ctx, tx, bedID)
		if err != nil {
			return err
		}

		if on {
			active, err := s.beds.ActiveAssignment(ctx, tx, bedID)
			if err != nil {
				return err
			}
			if active != nil {
				return apperrors.BedOccupied()
			}
			if err := s.beds.UpdateBedStatus(ctx, tx, bedID, model.BedStatusMaintenance, false); err != nil {
				return err
			}
			return s.emitStatusEvent(ctx, tx, sess, bedID, model.BedStatusMaintenance)
		}

		if bed.Status != model.BedStatusMaintenance && !bed.MaintenancePending {
			return nil
		}
		next := bed.Status
		if bed.Status == model.BedStatusMaintenance {
			next = model.BedStatusAvailable
		}
		if err := s.beds.UpdateBedStatus(ctx, tx, bedID, next, false); err != nil {
			return err
		}
		if next != bed.Status {
			return s.emitStatusEvent(ctx, tx, sess, bedID, next)
		}
		return nil
	})
}

// HoldMaintenance records a maintenance hold on an occupied bed; discharge
// then lands the bed in maintenance instead of available. On an empty bed
// it is equivalent to SetMaintenance(on).
func (s *Service) HoldMaintenance(ctx context.Context, sess Session, bedID uuid.UUID) error {
	return sess.WithTx(ctx, func(tx *sqlx.Tx) error {
		bed, err := s.beds.GetBedForUpdate(ctx, tx, bedID)
		if err != nil {
			return err
		}

		if bed.Status == model.BedStatusOccupied {
			return s.beds.UpdateBedStatus(ctx, tx, bedID, bed.Status, true)
		}
		if bed.Status == model.BedStatusAvailable {
			if err := s.beds.UpdateBedStatus(ctx, tx, bedID, model.BedStatusMaintenance, false); err != nil {
				return err
			}
			return s.emitStatusEvent(ctx, tx, sess, bedID, model.BedStatusMaintenance)
		}
		return nil
	})
}

func (s *Service) emitEvent(ctx context.Context, tx *sqlx.Tx, sess Session, eventType string, payload interface{}) error {
	if s.outbox == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.outbox.Create(ctx, tx, &model.OutboxEvent{
		TenantID:  sess.Tenant().ID,
		EventType: eventType,
		Payload:   raw,
	})
}

func (s *Service) emitStatusEvent(ctx context.Context, tx *sqlx.Tx, sess Session, bedID uuid.UUID, status model.BedStatus) error {
	return s.emitEvent(ctx, tx, sess, model.EventBedStatusChanged, map[string]string{
		"bed_id": bedID.String(),
		"status": string(status),
	})
}

func (s *Service) countConflict() {
	if s.metrics != nil {
		s.metrics.AssignmentConflicts.Inc()
	}
}
