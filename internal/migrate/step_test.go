package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSteps(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		wantErr string
	}{
		{
			name: "valid ordered list",
			steps: []Step{
				{Version: 1, Name: "a", Up: "SELECT 1"},
				{Version: 2, Name: "b", Up: "SELECT 2"},
			},
		},
		{
			name: "out of order",
			steps: []Step{
				{Version: 2, Name: "b", Up: "SELECT 2"},
				{Version: 1, Name: "a", Up: "SELECT 1"},
			},
			wantErr: "ordered",
		},
		{
			name: "duplicate version",
			steps: []Step{
				{Version: 1, Name: "a", Up: "SELECT 1"},
				{Version: 1, Name: "b", Up: "SELECT 2"},
			},
			wantErr: "duplicate",
		},
		{
			name:    "non-positive version",
			steps:   []Step{{Version: 0, Name: "a", Up: "SELECT 1"}},
			wantErr: "non-positive",
		},
		{
			name:    "empty up",
			steps:   []Step{{Version: 1, Name: "a"}},
			wantErr: "empty up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSteps(tt.steps)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPending(t *testing.T) {
	steps := []Step{
		{Version: 1, Name: "a", Up: "SELECT 1"},
		{Version: 2, Name: "b", Up: "SELECT 2"},
		{Version: 3, Name: "c", Up: "SELECT 3"},
	}

	todo := pending(steps, map[int]bool{1: true, 2: true})
	require.Len(t, todo, 1)
	assert.Equal(t, 3, todo[0].Version)

	// Fully applied namespace yields an empty list; the run is a no-op.
	assert.Empty(t, pending(steps, map[int]bool{1: true, 2: true, 3: true}))

	// Fresh namespace applies everything.
	assert.Len(t, pending(steps, map[int]bool{}), 3)
}

func TestBuiltinStepListsAreValid(t *testing.T) {
	assert.NoError(t, validateSteps(SharedSteps()))
	assert.NoError(t, validateSteps(TenantSteps()))
}

func TestAssignmentStepCarriesExclusionConstraint(t *testing.T) {
	var found bool
	for _, s := range TenantSteps() {
		if s.Name == "bed_assignments" {
			found = true
			assert.Contains(t, s.Up, "EXCLUDE USING gist")
			assert.Contains(t, s.Up, "tstzrange")
			assert.Contains(t, s.Up, "WHERE (status = 'active')")
		}
	}
	assert.True(t, found, "bed_assignments step missing")
}
