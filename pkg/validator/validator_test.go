package validator

import (
	"errors"
	"testing"

	playground "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Beds  int    `json:"beds" validate:"min=1"`
}

func TestMessageDescribesFieldViolations(t *testing.T) {
	v := playground.New()
	err := v.Struct(registerPayload{Email: "not-an-email"})
	require.Error(t, err)

	msg := Message(err)
	assert.Contains(t, msg, "is required")
	assert.Contains(t, msg, "must be a valid email address")
	assert.Contains(t, msg, "must be at least 1")
}

func TestMessagePassesThroughNonValidationErrors(t *testing.T) {
	err := errors.New("unexpected EOF")
	assert.Equal(t, "unexpected EOF", Message(err))
}
