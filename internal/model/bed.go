package model

import (
	"github.com/google/uuid"
)

type BedStatus string

const (
	BedStatusAvailable   BedStatus = "available"
	BedStatusOccupied    BedStatus = "occupied"
	BedStatusMaintenance BedStatus = "maintenance"
	BedStatusReserved    BedStatus = "reserved"
)

// Department groups beds inside one tenant namespace.
type Department struct {
	Base
	Name  string `json:"name" db:"name"`
	Floor int    `json:"floor" db:"floor"`
}

// Bed is an assignable resource. Status is a cache derived from the
// assignment history; it is flipped in the same transaction as the
// assignment row, never set directly by callers. The maintenance path is
// the one administrative exception.
type Bed struct {
	Base
	DepartmentID       uuid.UUID `json:"department_id" db:"department_id"`
	Number             string    `json:"number" db:"number"`
	Status             BedStatus `json:"status" db:"status"`
	MaintenancePending bool      `json:"maintenance_pending" db:"maintenance_pending"`
}

type CreateBedRequest struct {
	DepartmentID string `json:"department_id" binding:"required,uuid"`
	Number       string `json:"number" binding:"required"`
}

type CreateDepartmentRequest struct {
	Name  string `json:"name" binding:"required"`
	Floor int    `json:"floor"`
}
