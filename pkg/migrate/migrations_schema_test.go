package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restaurant-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestCatalogMigrationContainsTree(t *testing.T) {
	content := readMigration(t, "create_catalog")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS categories",
		"parent_category_id uuid NULL REFERENCES categories(id)",
		"CREATE TABLE IF NOT EXISTS category_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_category_items_category_item",
		"category_item_id uuid NOT NULL REFERENCES category_items(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS categories",
	} {
		require.Contains(t, content, sub)
	}
}

func TestConstructedItemModifiersCascadeWithSelection(t *testing.T) {
	content := readMigration(t, "create_constructed_items")
	require.Contains(t, content, "REFERENCES constructed_item_category_items (constructed_item_id, category_item_id) ON DELETE CASCADE")
}

func TestPurchasedOrdersUseSequentialNumbers(t *testing.T) {
	content := readMigration(t, "create_purchased_orders")
	for _, sub := range []string{
		"CREATE SEQUENCE IF NOT EXISTS purchased_order_number_seq",
		"DEFAULT nextval('purchased_order_number_seq')",
		"ux_purchased_orders_outstanding_order",
		"CREATE TABLE IF NOT EXISTS checkout_attempts",
	} {
		require.Contains(t, content, sub)
	}
	require.False(t, strings.Contains(content, "REFERENCES outstanding_orders"),
		"purchase history must outlive the outstanding order")
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Kitchen Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_kitchen_notes.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}
