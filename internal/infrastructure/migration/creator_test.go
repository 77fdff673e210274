package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add rate table", "add_rate_table"},
		{"Add-Rate-Table", "add_rate_table"},
		{"ADD_RATE_TABLE", "add_rate_table"},
		{"add__rate__table", "add_rate_table"},
		{"Add Rates 123", "add_rates_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add nexus table", "Stores economic nexus per state")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_nexus_table.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_nexus_table.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add_nexus_table")
	assert.Contains(t, string(up), "Stores economic nexus per state")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_NextVersion(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000001_init.up.sql", "000001_init.down.sql",
		"000007_rates.up.sql", "000007_rates.down.sql",
		"README.md",
	)

	mf, err := CreateMigration(dir, "nexus", "")
	require.NoError(t, err)
	assert.Equal(t, "000008", mf.Version)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "test", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestAvailable_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000002_add_rates.up.sql", "000002_add_rates.down.sql",
		"000001_init_schema.up.sql", "000001_init_schema.down.sql",
		"README.md",
	)

	got, err := Available(dir)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, Name: "init_schema"},
		{Version: 2, Name: "add_rates"},
	}, got)
}

func TestAvailable_EmptyDirectory(t *testing.T) {
	got, err := Available(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAvailable_MissingDirectory(t *testing.T) {
	_, err := Available(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
