package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := OverlapConflict(fmt.Errorf("pq: conflicting key value"))
	assert.True(t, errors.Is(err, OverlapConflict(nil)))
	assert.False(t, errors.Is(err, BedOccupied()))
	assert.False(t, errors.Is(err, errors.New("overlap")))
}

func TestIsSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("assign failed: %w", UnknownTenant("acme"))
	assert.True(t, errors.Is(err, UnknownTenant("other")))
	assert.False(t, errors.Is(err, TenantInactive("acme")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, `unknown tenant "ghost"`, UnknownTenant("ghost").Error())

	wrapped := OverlapConflict(errors.New("pq detail"))
	assert.Contains(t, wrapped.Error(), "pq detail")
}
