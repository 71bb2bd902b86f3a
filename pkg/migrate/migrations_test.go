package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestCentralInventoryMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_central_inventory"), []string{
		"CREATE TABLE IF NOT EXISTS central_inventory",
		"CONSTRAINT ux_central_inventory_store_item UNIQUE (store_id, item_id)",
		"CHECK (quantity_on_hand >= 0)",
		"CHECK (quantity_reserved <= quantity_on_hand)",
		"CHECK (committed_qty + released_qty <= quantity)",
		"DROP TABLE IF EXISTS central_inventory",
	})
}

func TestMaterialIssueMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_material_issues"), []string{
		"CHECK (quantity_issued > 0)",
		"quantity_received <= quantity_issued",
		"FOREIGN KEY (reservation_id) REFERENCES inventory_reservations(id) ON DELETE RESTRICT",
		"UNIQUE (material_issue_id, line_no)",
		"DROP TABLE IF EXISTS material_issues",
	})
}

func TestEnumMigrationCoversWorkflowValues(t *testing.T) {
	assertContains(t, readMigration(t, "create_enums"), []string{
		"'pending_college_approval'",
		"'partially_fulfilled'",
		"'record_fulfillment'",
		"'indent_deactivated'",
		"'receipt_discrepancy_reported'",
		"'non_retryable'",
	})
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Store Zones")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_store_zones.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}
}

func TestEmbeddedSourceMatchesDisk(t *testing.T) {
	source, err := migrate.Source("")
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	if err := migrate.Validate(source); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
	embedded, err := fs.Glob(source, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) == 0 || len(embedded) != len(onDisk) {
		t.Fatalf("embedded %d migrations, disk has %d", len(embedded), len(onDisk))
	}
}

func TestValidateRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x (id int);\n"
	if err := os.WriteFile(filepath.Join(dir, "20261016100000_swap.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected Down-before-Up to be rejected")
	}
}

func TestValidateRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	for _, name := range []string{"20261016100000_a.sql", "20261016100000_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	err := migrate.ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20261016090200"); err != nil || v != 20261016090200 {
		t.Fatalf("unexpected parse result %d %v", v, err)
	}
	for _, bad := range []string{"", "2026", "20261399090200", "abc"} {
		if _, err := migrate.ParseVersion(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
