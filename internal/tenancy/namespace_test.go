package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTenantID(t *testing.T) {
	valid := []string{"acme", "st_marys", "clinic42", "a", "0"}
	for _, id := range valid {
		assert.True(t, ValidTenantID(id), "expected %q to be valid", id)
	}

	invalid := []string{
		"",
		"Acme",
		"st-marys",
		"clinic 42",
		"tenant;DROP SCHEMA shared",
		`bad"quote`,
		"héllo",
	}
	for _, id := range invalid {
		assert.False(t, ValidTenantID(id), "expected %q to be rejected", id)
	}
}

func TestSchemaForIsInjective(t *testing.T) {
	ids := []string{"acme", "acme2", "st_marys", "marys"}
	seen := make(map[string]string)
	for _, id := range ids {
		schema := SchemaFor(id)
		prev, dup := seen[schema]
		assert.False(t, dup, "ids %q and %q map to the same schema", prev, id)
		seen[schema] = id
	}
}

func TestTenantIDFromSchema(t *testing.T) {
	id, ok := TenantIDFromSchema("tenant_acme")
	assert.True(t, ok)
	assert.Equal(t, "acme", id)

	for _, schema := range []string{"shared", "public", "tenant_", "tenant_Bad-Name", "acme"} {
		_, ok := TenantIDFromSchema(schema)
		assert.False(t, ok, "expected %q to be outside the naming convention", schema)
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	id, ok := TenantIDFromSchema(SchemaFor("general_hospital"))
	assert.True(t, ok)
	assert.Equal(t, "general_hospital", id)
}
