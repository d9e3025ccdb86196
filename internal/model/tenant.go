package model

import "time"

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is a registry row in the shared catalog. The schema name is derived
// from the ID at registration and never changes afterwards; deactivation keeps
// the schema and its data in place.
type Tenant struct {
	ID         string       `json:"id" db:"id"`
	Name       string       `json:"name" db:"name"`
	Schema     string       `json:"schema" db:"schema_name"`
	Status     TenantStatus `json:"status" db:"status"`
	APIKeyHash string       `json:"-" db:"api_key_hash"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}

type RegisterTenantRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// RegisteredTenant is the registration response. APIKey is the only
// time the plaintext key leaves the system.
type RegisteredTenant struct {
	Tenant *Tenant `json:"tenant"`
	APIKey string  `json:"api_key"`
}

type IssueTokenRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}
