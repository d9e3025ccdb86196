package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wardline/ward-api/internal/model"
)

// Querier is the common surface of a tenant-scoped session and a
// transaction opened on one. Repositories that live inside a tenant
// namespace accept it instead of holding a *sqlx.DB, so every statement
// they issue runs on a connection whose search_path is already pinned.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TenantRepository persists the registry in the shared catalog.
type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	Get(ctx context.Context, id string) (*model.Tenant, error)
	UpdateStatus(ctx context.Context, id string, status model.TenantStatus) error
	List(ctx context.Context) ([]*model.Tenant, error)
}

// DepartmentRepository manages departments inside one tenant namespace.
type DepartmentRepository interface {
	Create(ctx context.Context, q Querier, dept *model.Department) error
	Get(ctx context.Context, q Querier, id uuid.UUID) (*model.Department, error)
	List(ctx context.Context, q Querier) ([]*model.Department, error)
}

// BedRepository manages beds and their assignment history inside one
// tenant namespace. The ForUpdate variants take row locks so the
// status-cache flip and the assignment write stay serialized per bed.
type BedRepository interface {
	CreateBed(ctx context.Context, q Querier, bed *model.Bed) error
	GetBed(ctx context.Context, q Querier, id uuid.UUID) (*model.Bed, error)
	GetBedForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Bed, error)
	ListBeds(ctx context.Context, q Querier, departmentID uuid.UUID) ([]*model.Bed, error)
	UpdateBedStatus(ctx context.Context, q Querier, id uuid.UUID, status model.BedStatus, maintenancePending bool) error

	InsertAssignment(ctx context.Context, tx *sqlx.Tx, a *model.BedAssignment) error
	GetAssignment(ctx context.Context, q Querier, id uuid.UUID) (*model.BedAssignment, error)
	GetAssignmentForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.BedAssignment, error)
	ActiveAssignment(ctx context.Context, q Querier, bedID uuid.UUID) (*model.BedAssignment, error)
	OverlappingActive(ctx context.Context, q Querier, bedID uuid.UUID, start time.Time, end *time.Time) ([]*model.BedAssignment, error)
	CloseAssignment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, dischargeTime time.Time) error
}

// PatientRepository manages patients inside one tenant namespace.
type PatientRepository interface {
	Create(ctx context.Context, q Querier, patient *model.Patient) error
	Get(ctx context.Context, q Querier, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, q Querier) ([]*model.Patient, error)
}

// OutboxRepository persists assignment events in the shared catalog.
// Create runs on the caller's Querier so the event row commits with the
// transition it describes; the polling methods run on the worker's pool.
type OutboxRepository interface {
	Create(ctx context.Context, q Querier, event *model.OutboxEvent) error
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
