package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/assetflow/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add calibration table", "add_calibration_table"},
		{"Add-Calibration-Table", "add_calibration_table"},
		{"ADD__CALIBRATION", "add_calibration"},
		{"Index 2 columns", "index_2_columns"},
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

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add loan limits", "Per-department loan limits")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_loan_limits.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_loan_limits.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add loan limits")
	assert.Contains(t, string(up), "Per-department loan limits")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "rollback")

	second, err := CreateMigration(dir, "Index due dates", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	names, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_add_loan_limits", "000002_index_due_dates"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":    {},
		"000010_later.down.sql":  {},
		"000002_second.up.sql":   {},
		"000002_second.down.sql": {},
		"README.md":              {},
		"draft.up.sql":           {},
		"nested/000003_x.up.sql": {},
		"000001_first.up.sql":    {},
		"000001_first.down.sql":  {},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_first", "000002_second", "000010_later"}, names)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for i, name := range names {
		v, ok := parseVersion(name)
		require.True(t, ok, name)
		assert.Equal(t, i+1, v, "versions are contiguous")

		_, err := migrations.FS.Open(name + downSuffix)
		assert.NoError(t, err, "missing down script for %s", name)
	}
}
