package migrate

import (
	"fmt"
	"sort"
)

// Step is one named, versioned schema operation with an up/down pair. Step
// lists are static inputs authored alongside the code; the orchestrator
// applies them to every namespace it discovers.
type Step struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// validateSteps checks the list is non-empty-safe to apply: strictly
// increasing versions, no blank Up statements.
func validateSteps(steps []Step) error {
	sorted := sort.SliceIsSorted(steps, func(i, j int) bool {
		return steps[i].Version < steps[j].Version
	})
	if !sorted {
		return fmt.Errorf("migration steps must be ordered by version")
	}
	seen := make(map[int]bool, len(steps))
	for _, s := range steps {
		if s.Version <= 0 {
			return fmt.Errorf("migration %q has non-positive version %d", s.Name, s.Version)
		}
		if seen[s.Version] {
			return fmt.Errorf("duplicate migration version %d", s.Version)
		}
		seen[s.Version] = true
		if s.Up == "" {
			return fmt.Errorf("migration %d (%s) has empty up statement", s.Version, s.Name)
		}
	}
	return nil
}

// pending filters out steps whose version is already recorded as applied.
// Re-running against an up-to-date namespace yields an empty slice, which
// makes the whole run a no-op.
func pending(steps []Step, applied map[int]bool) []Step {
	var out []Step
	for _, s := range steps {
		if !applied[s.Version] {
			out = append(out, s)
		}
	}
	return out
}

// SharedSteps returns the migration list for the shared cross-tenant
// catalog: the tenant registry and the event outbox.
func SharedSteps() []Step {
	return []Step{
		{
			Version: 1,
			Name:    "btree_gist_extension",
			Up:      `CREATE EXTENSION IF NOT EXISTS btree_gist`,
			Down:    `DROP EXTENSION IF EXISTS btree_gist`,
		},
		{
			Version: 2,
			Name:    "tenants",
			Up: `
				CREATE TABLE IF NOT EXISTS tenants (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					schema_name TEXT NOT NULL UNIQUE,
					status TEXT NOT NULL DEFAULT 'active',
					api_key_hash TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
			Down: `DROP TABLE IF EXISTS tenants`,
		},
		{
			Version: 3,
			Name:    "outbox_events",
			Up: `
				CREATE TABLE IF NOT EXISTS outbox_events (
					id UUID PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					event_type TEXT NOT NULL,
					payload JSONB NOT NULL,
					status TEXT NOT NULL DEFAULT 'PENDING',
					error_message TEXT,
					retry_count INT NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					processed_at TIMESTAMPTZ
				);
				CREATE INDEX IF NOT EXISTS idx_outbox_events_pending
					ON outbox_events (created_at) WHERE status = 'PENDING'`,
			Down: `DROP TABLE IF EXISTS outbox_events`,
		},
	}
}

// TenantSteps returns the migration list applied to every tenant namespace.
// The final step carries the temporal exclusion constraint that makes the
// storage engine the arbiter of the no-double-booking invariant.
func TenantSteps() []Step {
	return []Step{
		{
			Version: 1,
			Name:    "departments",
			Up: `
				CREATE TABLE IF NOT EXISTS departments (
					id UUID PRIMARY KEY,
					name TEXT NOT NULL,
					floor INT NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
			Down: `DROP TABLE IF EXISTS departments`,
		},
		{
			Version: 2,
			Name:    "beds",
			Up: `
				CREATE TABLE IF NOT EXISTS beds (
					id UUID PRIMARY KEY,
					department_id UUID NOT NULL REFERENCES departments(id),
					number TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'available',
					maintenance_pending BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT beds_department_number_key UNIQUE (department_id, number),
					CONSTRAINT beds_status_check CHECK
						(status IN ('available', 'occupied', 'maintenance', 'reserved'))
				)`,
			Down: `DROP TABLE IF EXISTS beds`,
		},
		{
			Version: 3,
			Name:    "patients",
			Up: `
				CREATE TABLE IF NOT EXISTS patients (
					id UUID PRIMARY KEY,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					date_of_birth DATE,
					encrypted_email BYTEA,
					status TEXT NOT NULL DEFAULT 'active',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
			Down: `DROP TABLE IF EXISTS patients`,
		},
		{
			Version: 4,
			Name:    "bed_assignments",
			Up: `
				CREATE TABLE IF NOT EXISTS bed_assignments (
					id UUID PRIMARY KEY,
					bed_id UUID NOT NULL REFERENCES beds(id),
					patient_id UUID NOT NULL REFERENCES patients(id),
					admission_time TIMESTAMPTZ NOT NULL,
					discharge_time TIMESTAMPTZ,
					status TEXT NOT NULL DEFAULT 'active',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT bed_assignments_interval_check CHECK
						(discharge_time IS NULL OR discharge_time >= admission_time),
					CONSTRAINT bed_assignments_no_overlap EXCLUDE USING gist (
						bed_id WITH =,
						tstzrange(admission_time,
							COALESCE(discharge_time, 'infinity'::timestamptz), '[)') WITH &&
					) WHERE (status = 'active')
				);
				CREATE INDEX IF NOT EXISTS idx_bed_assignments_bed_active
					ON bed_assignments (bed_id) WHERE status = 'active'`,
			Down: `DROP TABLE IF EXISTS bed_assignments`,
		},
	}
}
