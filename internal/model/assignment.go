package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusActive     AssignmentStatus = "active"
	AssignmentStatusDischarged AssignmentStatus = "discharged"
)

// BedAssignment is the source of truth for bed occupancy: one bed, one
// patient, a half-open interval [admission, discharge). DischargeTime is
// nil while the assignment is active. The storage layer enforces that no
// two active assignments on the same bed overlap.
type BedAssignment struct {
	Base
	BedID         uuid.UUID        `json:"bed_id" db:"bed_id"`
	PatientID     uuid.UUID        `json:"patient_id" db:"patient_id"`
	AdmissionTime time.Time        `json:"admission_time" db:"admission_time"`
	DischargeTime *time.Time       `json:"discharge_time,omitempty" db:"discharge_time"`
	Status        AssignmentStatus `json:"status" db:"status"`
}

func (a *BedAssignment) Active() bool {
	return a.Status == AssignmentStatusActive
}

// Overlaps reports whether the assignment's interval intersects
// [start, end). A nil end (or nil discharge) is treated as open-ended.
func (a *BedAssignment) Overlaps(start time.Time, end *time.Time) bool {
	if end != nil && !end.After(a.AdmissionTime) {
		return false
	}
	if a.DischargeTime != nil && !a.DischargeTime.After(start) {
		return false
	}
	return true
}

type AssignBedRequest struct {
	PatientID     string    `json:"patient_id" binding:"required,uuid"`
	AdmissionTime time.Time `json:"admission_time" binding:"required"`
}

type DischargeRequest struct {
	DischargeTime time.Time `json:"discharge_time" binding:"required"`
}

type MaintenanceRequest struct {
	On bool `json:"on"`
}
