package bed_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	"github.com/wardline/ward-api/internal/service/bed"
	apperrors "github.com/wardline/ward-api/pkg/errors"
	"github.com/wardline/ward-api/pkg/logger"
)

type fakeSession struct {
	tenant *model.Tenant
}

func (s *fakeSession) Tenant() *model.Tenant { return s.tenant }

func (s *fakeSession) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (s *fakeSession) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (s *fakeSession) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (s *fakeSession) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type fakeBedRepo struct {
	beds        map[uuid.UUID]*model.Bed
	assignments map[uuid.UUID]*model.BedAssignment
}

func newFakeBedRepo() *fakeBedRepo {
	return &fakeBedRepo{
		beds:        make(map[uuid.UUID]*model.Bed),
		assignments: make(map[uuid.UUID]*model.BedAssignment),
	}
}

func (r *fakeBedRepo) CreateBed(ctx context.Context, q repository.Querier, b *model.Bed) error {
	b.ID = uuid.New()
	r.beds[b.ID] = b
	return nil
}

func (r *fakeBedRepo) GetBed(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Bed, error) {
	b, ok := r.beds[id]
	if !ok {
		return nil, apperrors.NotFound("bed", nil)
	}
	return b, nil
}

func (r *fakeBedRepo) GetBedForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Bed, error) {
	return r.GetBed(ctx, nil, id)
}

func (r *fakeBedRepo) ListBeds(ctx context.Context, q repository.Querier, departmentID uuid.UUID) ([]*model.Bed, error) {
	var out []*model.Bed
	for _, b := range r.beds {
		if departmentID == uuid.Nil || b.DepartmentID == departmentID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBedRepo) UpdateBedStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status model.BedStatus, maintenancePending bool) error {
	b, ok := r.beds[id]
	if !ok {
		return apperrors.NotFound("bed", nil)
	}
	b.Status = status
	b.MaintenancePending = maintenancePending
	return nil
}

func (r *fakeBedRepo) InsertAssignment(ctx context.Context, tx *sqlx.Tx, a *model.BedAssignment) error {
	a.ID = uuid.New()
	a.Status = model.AssignmentStatusActive
	r.assignments[a.ID] = a
	return nil
}

func (r *fakeBedRepo) GetAssignment(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.BedAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, apperrors.NotFound("assignment", nil)
	}
	return a, nil
}

func (r *fakeBedRepo) GetAssignmentForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.BedAssignment, error) {
	return r.GetAssignment(ctx, nil, id)
}

func (r *fakeBedRepo) ActiveAssignment(ctx context.Context, q repository.Querier, bedID uuid.UUID) (*model.BedAssignment, error) {
	for _, a := range r.assignments {
		if a.BedID == bedID && a.Active() {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeBedRepo) OverlappingActive(ctx context.Context, q repository.Querier, bedID uuid.UUID, start time.Time, end *time.Time) ([]*model.BedAssignment, error) {
	var out []*model.BedAssignment
	for _, a := range r.assignments {
		if a.BedID == bedID && a.Active() && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeBedRepo) CloseAssignment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, dischargeTime time.Time) error {
	a, ok := r.assignments[id]
	if !ok || !a.Active() {
		return apperrors.AssignmentNotActive()
	}
	a.DischargeTime = &dischargeTime
	a.Status = model.AssignmentStatusDischarged
	return nil
}

type fakeDeptRepo struct {
	departments map[uuid.UUID]*model.Department
}

func newFakeDeptRepo() *fakeDeptRepo {
	return &fakeDeptRepo{departments: make(map[uuid.UUID]*model.Department)}
}

func (r *fakeDeptRepo) Create(ctx context.Context, q repository.Querier, d *model.Department) error {
	d.ID = uuid.New()
	r.departments[d.ID] = d
	return nil
}

func (r *fakeDeptRepo) Get(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Department, error) {
	d, ok := r.departments[id]
	if !ok {
		return nil, apperrors.NotFound("department", nil)
	}
	return d, nil
}

func (r *fakeDeptRepo) List(ctx context.Context, q repository.Querier) ([]*model.Department, error) {
	var out []*model.Department
	for _, d := range r.departments {
		out = append(out, d)
	}
	return out, nil
}

type fakeOutbox struct {
	events []*model.OutboxEvent
}

func (o *fakeOutbox) Create(ctx context.Context, q repository.Querier, event *model.OutboxEvent) error {
	o.events = append(o.events, event)
	return nil
}

func (o *fakeOutbox) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (o *fakeOutbox) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return nil
}

func (o *fakeOutbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (o *fakeOutbox) types() []string {
	var out []string
	for _, e := range o.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	svc    *bed.Service
	beds   *fakeBedRepo
	depts  *fakeDeptRepo
	outbox *fakeOutbox
	sess   *fakeSession
}

func newFixture() *fixture {
	beds := newFakeBedRepo()
	depts := newFakeDeptRepo()
	outbox := &fakeOutbox{}
	return &fixture{
		svc:    bed.NewService(beds, depts, outbox, nil, logger.NewLogger(nil)),
		beds:   beds,
		depts:  depts,
		outbox: outbox,
		sess:   &fakeSession{tenant: &model.Tenant{ID: "acme", Schema: "tenant_acme", Status: model.TenantStatusActive}},
	}
}

func (f *fixture) addBed(status model.BedStatus) *model.Bed {
	b := &model.Bed{Number: "101-A", Status: status}
	b.ID = uuid.New()
	f.beds.beds[b.ID] = b
	return b
}

func (f *fixture) addActiveAssignment(bedID uuid.UUID, admission time.Time) *model.BedAssignment {
	a := &model.BedAssignment{
		BedID:         bedID,
		PatientID:     uuid.New(),
		AdmissionTime: admission,
		Status:        model.AssignmentStatusActive,
	}
	a.ID = uuid.New()
	f.beds.assignments[a.ID] = a
	return a
}

func TestAssign(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusAvailable)
	patientID := uuid.New()
	admission := time.Now()

	a, err := f.svc.Assign(context.Background(), f.sess, b.ID, patientID, admission)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, model.AssignmentStatusActive, a.Status)
	assert.Equal(t, patientID, a.PatientID)

	assert.Equal(t, model.BedStatusOccupied, b.Status)
	assert.Equal(t, []string{model.EventAssignmentCreated, model.EventBedStatusChanged}, f.outbox.types())
	for _, e := range f.outbox.events {
		assert.Equal(t, "acme", e.TenantID)
	}
}

func TestAssignRequiresAdmissionTime(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusAvailable)

	_, err := f.svc.Assign(context.Background(), f.sess, b.ID, uuid.New(), time.Time{})
	assert.ErrorIs(t, err, apperrors.InvalidInterval(""))
}

func TestAssignBedNotAvailable(t *testing.T) {
	f := newFixture()

	for _, status := range []model.BedStatus{model.BedStatusOccupied, model.BedStatusMaintenance, model.BedStatusReserved} {
		b := f.addBed(status)
		_, err := f.svc.Assign(context.Background(), f.sess, b.ID, uuid.New(), time.Now())
		assert.ErrorIs(t, err, apperrors.BedNotAvailable(string(status)), "status %s", status)
	}
	assert.Empty(t, f.outbox.events)
}

func TestAssignOverlapWithHistory(t *testing.T) {
	// The cached status can say available while a future-dated active
	// assignment exists; the history check still rejects the request.
	f := newFixture()
	b := f.addBed(model.BedStatusAvailable)
	f.addActiveAssignment(b.ID, time.Now().Add(2*time.Hour))

	_, err := f.svc.Assign(context.Background(), f.sess, b.ID, uuid.New(), time.Now())
	assert.ErrorIs(t, err, apperrors.OverlapConflict(nil))
	assert.Equal(t, model.BedStatusAvailable, b.Status)
	assert.Empty(t, f.outbox.events)
}

func TestDischarge(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusOccupied)
	admission := time.Now().Add(-24 * time.Hour)
	a := f.addActiveAssignment(b.ID, admission)
	dischargeTime := time.Now()

	out, err := f.svc.Discharge(context.Background(), f.sess, a.ID, dischargeTime)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentStatusDischarged, out.Status)
	require.NotNil(t, out.DischargeTime)
	assert.True(t, out.DischargeTime.Equal(dischargeTime))

	assert.Equal(t, model.BedStatusAvailable, b.Status)
	assert.False(t, b.MaintenancePending)
	assert.Equal(t, []string{model.EventAssignmentClosed, model.EventBedStatusChanged}, f.outbox.types())
}

func TestDischargeHonorsMaintenanceHold(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusOccupied)
	b.MaintenancePending = true
	a := f.addActiveAssignment(b.ID, time.Now().Add(-time.Hour))

	_, err := f.svc.Discharge(context.Background(), f.sess, a.ID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, model.BedStatusMaintenance, b.Status)
	assert.False(t, b.MaintenancePending)
}

func TestDischargeInactiveAssignment(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusAvailable)
	a := f.addActiveAssignment(b.ID, time.Now().Add(-2*time.Hour))
	a.Status = model.AssignmentStatusDischarged

	_, err := f.svc.Discharge(context.Background(), f.sess, a.ID, time.Now())
	assert.ErrorIs(t, err, apperrors.AssignmentNotActive())
}

func TestDischargeBeforeAdmission(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusOccupied)
	a := f.addActiveAssignment(b.ID, time.Now())

	_, err := f.svc.Discharge(context.Background(), f.sess, a.ID, time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, apperrors.InvalidInterval(""))
	assert.True(t, a.Active(), "assignment must stay active after a rejected discharge")
}

func TestSetMaintenanceOnEmptyBed(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusAvailable)

	require.NoError(t, f.svc.SetMaintenance(context.Background(), f.sess, b.ID, true))
	assert.Equal(t, model.BedStatusMaintenance, b.Status)
}

func TestSetMaintenanceRejectsOccupiedBed(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusOccupied)
	f.addActiveAssignment(b.ID, time.Now().Add(-time.Hour))

	err := f.svc.SetMaintenance(context.Background(), f.sess, b.ID, true)
	assert.ErrorIs(t, err, apperrors.BedOccupied())
	assert.Equal(t, model.BedStatusOccupied, b.Status)
}

func TestSetMaintenanceOff(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusMaintenance)

	require.NoError(t, f.svc.SetMaintenance(context.Background(), f.sess, b.ID, false))
	assert.Equal(t, model.BedStatusAvailable, b.Status)
	assert.False(t, b.MaintenancePending)
}

func TestHoldMaintenanceOnOccupiedBed(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusOccupied)
	f.addActiveAssignment(b.ID, time.Now().Add(-time.Hour))

	require.NoError(t, f.svc.HoldMaintenance(context.Background(), f.sess, b.ID))
	assert.Equal(t, model.BedStatusOccupied, b.Status)
	assert.True(t, b.MaintenancePending)
}

func TestHoldMaintenanceOnEmptyBed(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusAvailable)

	require.NoError(t, f.svc.HoldMaintenance(context.Background(), f.sess, b.ID))
	assert.Equal(t, model.BedStatusMaintenance, b.Status)
}

func TestHoldThenDischargeLandsInMaintenance(t *testing.T) {
	f := newFixture()
	b := f.addBed(model.BedStatusOccupied)
	a := f.addActiveAssignment(b.ID, time.Now().Add(-time.Hour))

	require.NoError(t, f.svc.HoldMaintenance(context.Background(), f.sess, b.ID))
	_, err := f.svc.Discharge(context.Background(), f.sess, a.ID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, model.BedStatusMaintenance, b.Status)
	assert.False(t, b.MaintenancePending)
}

func TestCreateBedRequiresDepartment(t *testing.T) {
	f := newFixture()

	err := f.svc.CreateBed(context.Background(), f.sess, &model.Bed{
		DepartmentID: uuid.New(),
		Number:       "101-A",
	})
	assert.ErrorIs(t, err, apperrors.NotFound("bed", nil))
}
