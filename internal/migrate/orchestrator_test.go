package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardline/ward-api/pkg/logger"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(nil, Config{}, logger.NewLogger(nil), nil)
	require.NoError(t, err)
	return o
}

func TestNewOrchestratorDefaults(t *testing.T) {
	o := newTestOrchestrator(t)
	assert.Equal(t, 4, o.concurrency)
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	o := newTestOrchestrator(t)

	o.mu.Lock()
	defer o.mu.Unlock()

	_, err := o.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestProvisionNamespaceRejectsForeignSchema(t *testing.T) {
	o := newTestOrchestrator(t)

	for _, schema := range []string{"shared", "public", "tenant_Bad-Name", "pg_catalog"} {
		err := o.ProvisionNamespace(context.Background(), schema)
		require.Error(t, err, "schema %q", schema)
		assert.Contains(t, err.Error(), "naming convention")
	}
}

func TestRunSummaryAccounting(t *testing.T) {
	s := &RunSummary{
		Results: []NamespaceResult{
			{Schema: "shared", Applied: 3},
			{Schema: "tenant_a", Applied: 4},
			{Schema: "tenant_b", Skipped: 4},
			{Schema: "tenant_c", Err: errors.New("legacy rows violate constraint")},
		},
		Duration: time.Second,
	}

	assert.Equal(t, 3, s.Succeeded())
	assert.Equal(t, 1, s.Failed())
	assert.True(t, s.Degraded())

	clean := &RunSummary{Results: []NamespaceResult{{Schema: "shared"}}}
	assert.False(t, clean.Degraded())
}
