package migrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wardline/ward-api/internal/tenancy"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/metrics"
)

// ErrRunInProgress is returned when Run is called while another run on the
// same orchestrator has not finished. Callers serialize runs; namespaces
// inside one run may still be migrated concurrently.
var ErrRunInProgress = fmt.Errorf("migration run already in progress")

// NamespaceResult is the per-namespace outcome of one run.
type NamespaceResult struct {
	Schema  string `json:"schema"`
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"`
	Err     error  `json:"-"`
}

// RunSummary collects per-namespace outcomes. A run with failures is
// degraded, not fatal: tenants are independent, so one namespace's bad
// legacy data never blocks the others.
type RunSummary struct {
	Results  []NamespaceResult `json:"results"`
	Duration time.Duration     `json:"duration"`
}

func (s *RunSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (s *RunSummary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

func (s *RunSummary) Degraded() bool {
	return s.Failed() > 0
}

type Config struct {
	Concurrency int
}

// Orchestrator applies the step lists to the shared catalog and to every
// tenant namespace found in the store's own catalog. Discovery deliberately
// bypasses the registry: the orchestrator stays authoritative about on-disk
// reality even when registry and storage have drifted.
type Orchestrator struct {
	db          *sqlx.DB
	tenantSteps []Step
	sharedSteps []Step
	concurrency int
	logger      *logger.Logger
	metrics     *metrics.Metrics

	mu sync.Mutex

	// discover is replaced in tests; the default queries pg_namespace.
	discover func(ctx context.Context) ([]string, error)
}

func NewOrchestrator(db *sqlx.DB, cfg Config, log *logger.Logger, m *metrics.Metrics) (*Orchestrator, error) {
	tenantSteps := TenantSteps()
	sharedSteps := SharedSteps()
	if err := validateSteps(tenantSteps); err != nil {
		return nil, fmt.Errorf("invalid tenant steps: %w", err)
	}
	if err := validateSteps(sharedSteps); err != nil {
		return nil, fmt.Errorf("invalid shared steps: %w", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	o := &Orchestrator{
		db:          db,
		tenantSteps: tenantSteps,
		sharedSteps: sharedSteps,
		concurrency: cfg.Concurrency,
		logger:      log,
		metrics:     m,
	}
	o.discover = o.discoverNamespaces
	return o, nil
}

// Run migrates the shared catalog and then every discovered tenant
// namespace. Zero discovered namespaces is a successful empty run.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	start := time.Now()
	var timer *prometheus.Timer
	if o.metrics != nil {
		timer = prometheus.NewTimer(o.metrics.MigrationRunDuration)
		defer timer.ObserveDuration()
	}

	// Shared first: tenant registration and the outbox depend on it.
	if err := o.ensureSchema(ctx, tenancy.SharedSchema); err != nil {
		return nil, err
	}
	sharedResult := o.applyNamespace(ctx, tenancy.SharedSchema, o.sharedSteps)
	if sharedResult.Err != nil {
		return nil, fmt.Errorf("shared catalog migration failed: %w", sharedResult.Err)
	}

	schemas, err := o.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover tenant namespaces: %w", err)
	}

	results := make([]NamespaceResult, len(schemas))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, schema := range schemas {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, schema string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = o.applyNamespace(ctx, schema, o.tenantSteps)
		}(i, schema)
	}
	wg.Wait()

	summary := &RunSummary{
		Results:  append([]NamespaceResult{sharedResult}, results...),
		Duration: time.Since(start),
	}

	for _, r := range summary.Results {
		if r.Err != nil {
			if o.metrics != nil {
				o.metrics.MigrationNamespacesFailed.Inc()
			}
			o.logger.Error(r.Err, "namespace migration failed", "schema", r.Schema)
		} else {
			if o.metrics != nil {
				o.metrics.MigrationNamespacesSucceeded.Inc()
			}
		}
	}
	o.logger.Info("migration run complete",
		"namespaces", len(summary.Results),
		"failed", summary.Failed(),
		"duration", summary.Duration.String())

	return summary, nil
}

// ProvisionNamespace creates a tenant's schema and brings it to the current
// version. The registry calls this during onboarding.
func (o *Orchestrator) ProvisionNamespace(ctx context.Context, schema string) error {
	if _, ok := tenancy.TenantIDFromSchema(schema); !ok {
		return fmt.Errorf("schema %q is outside the tenant naming convention", schema)
	}
	if err := o.ensureSchema(ctx, schema); err != nil {
		return err
	}
	result := o.applyNamespace(ctx, schema, o.tenantSteps)
	if result.Err != nil {
		return fmt.Errorf("failed to migrate %s: %w", schema, result.Err)
	}
	return nil
}

func (o *Orchestrator) ensureSchema(ctx context.Context, schema string) error {
	query := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema))
	if _, err := o.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	return nil
}

// discoverNamespaces asks the store's catalog, not the registry, for every
// schema matching the tenant naming convention.
func (o *Orchestrator) discoverNamespaces(ctx context.Context) ([]string, error) {
	query := `
		SELECT nspname FROM pg_catalog.pg_namespace
		WHERE nspname LIKE 'tenant\_%' ESCAPE '\'
		ORDER BY nspname
	`
	var schemas []string
	if err := o.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, err
	}
	return schemas, nil
}

// applyNamespace brings one namespace up to date. Each step commits in its
// own transaction, so a failing step leaves the namespace at its last
// successful one and the error is catalogued in the summary instead of
// propagating.
func (o *Orchestrator) applyNamespace(ctx context.Context, schema string, steps []Step) NamespaceResult {
	result := NamespaceResult{Schema: schema}

	if err := o.ensureTrackingTable(ctx, schema); err != nil {
		result.Err = err
		return result
	}

	applied, err := o.appliedVersions(ctx, schema)
	if err != nil {
		result.Err = err
		return result
	}

	todo := pending(steps, applied)
	result.Skipped = len(steps) - len(todo)

	for _, step := range todo {
		if err := o.applyStep(ctx, schema, step); err != nil {
			result.Err = fmt.Errorf("step %d (%s): %w", step.Version, step.Name, err)
			return result
		}
		result.Applied++
	}
	return result
}

func (o *Orchestrator) ensureTrackingTable(ctx context.Context, schema string) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s._migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`, pq.QuoteIdentifier(schema))
	if _, err := o.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tracking table in %s: %w", schema, err)
	}
	return nil
}

func (o *Orchestrator) appliedVersions(ctx context.Context, schema string) (map[int]bool, error) {
	query := fmt.Sprintf(`SELECT version FROM %s._migrations`, pq.QuoteIdentifier(schema))
	var versions []int
	if err := o.db.SelectContext(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("failed to query applied versions in %s: %w", schema, err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// applyStep runs one step and records it in the tracking table inside a
// single transaction.
func (o *Orchestrator) applyStep(ctx context.Context, schema string, step Step) error {
	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	setPath := fmt.Sprintf("SET LOCAL search_path TO %s", pq.QuoteIdentifier(schema))
	if _, err := tx.ExecContext(ctx, setPath); err != nil {
		return fmt.Errorf("failed to set search_path: %w", err)
	}

	if _, err := tx.ExecContext(ctx, step.Up); err != nil {
		return fmt.Errorf("failed to execute: %w", err)
	}

	record := fmt.Sprintf(`INSERT INTO %s._migrations (version, name) VALUES ($1, $2)`,
		pq.QuoteIdentifier(schema))
	if _, err := tx.ExecContext(ctx, record, step.Version, step.Name); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
