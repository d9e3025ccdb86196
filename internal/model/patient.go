package model

import (
	"time"
)

// Patient lives entirely inside one tenant namespace. Contact details are
// encrypted at rest; the plaintext fields are transient.
type Patient struct {
	Base
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Email          string     `json:"email,omitempty" db:"-"`
	EncryptedEmail []byte     `json:"-" db:"encrypted_email"`
	Status         string     `json:"status" db:"status"`
}

type CreatePatientRequest struct {
	FirstName   string     `json:"first_name" binding:"required"`
	LastName    string     `json:"last_name" binding:"required"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Email       string     `json:"email" binding:"omitempty,email"`
}
