package tenancy

import (
	"regexp"
	"strings"
)

// SharedSchema holds cross-tenant catalogs (tenant registry, outbox). It is
// always on the search path after the tenant schema.
const SharedSchema = "shared"

// SchemaPrefix is the naming convention for tenant namespaces. Discovery in
// the migration orchestrator matches on it, so it must never change once
// tenants exist.
const SchemaPrefix = "tenant_"

// tenantIDPattern is the allow-list for tenant identifiers. Schema names are
// interpolated into statement text rather than bound as parameters, so
// anything outside this set is rejected outright, never sanitized.
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidTenantID reports whether id is inside the allow-listed character set.
func ValidTenantID(id string) bool {
	return id != "" && tenantIDPattern.MatchString(id)
}

// SchemaFor derives the namespace for a tenant id. The mapping is
// deterministic and injective over the allow-listed id set: distinct ids
// always produce distinct schemas.
func SchemaFor(tenantID string) string {
	return SchemaPrefix + tenantID
}

// TenantIDFromSchema reverses SchemaFor. The second return is false for
// schemas outside the tenant naming convention.
func TenantIDFromSchema(schema string) (string, bool) {
	if !strings.HasPrefix(schema, SchemaPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(schema, SchemaPrefix)
	if !ValidTenantID(id) {
		return "", false
	}
	return id, true
}
