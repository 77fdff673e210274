package migration

import (
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/erp/salestax/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable_Embedded(t *testing.T) {
	got, err := Available("")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Migration{Version: 1, Name: "create_salestax_schema"}, got[0])
	assert.Equal(t, Migration{Version: 2, Name: "create_outbox_events"}, got[1])
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(migrations.FS, down)
		assert.NoError(t, err, "missing rollback for %s", up)
	}
}

func TestEmbeddedSchemaCoversMappedTables(t *testing.T) {
	f, err := migrations.FS.Open("000001_create_salestax_schema.up.sql")
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)

	for _, table := range []string{
		"salestax_configurations", "taxes", "currency_rates", "product_tax_codes",
		"product_categories", "products", "partners", "warehouses",
		"sales_orders", "sales_order_lines", "invoices", "invoice_lines",
	} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
