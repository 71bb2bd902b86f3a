package db

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	if err := conn.Exec("DELETE FROM test_models").Error; err != nil {
		t.Fatalf("failed to reset sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestEnsureSQLiteSchemaIsIdempotent(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:schema_twice?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := EnsureSQLiteSchema(conn); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := EnsureSQLiteSchema(conn); err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if !conn.Migrator().HasTable("central_inventory") {
		t.Fatal("expected central_inventory table")
	}
}

func TestSQLiteLedgerCheckConstraint(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:schema_check?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := EnsureSQLiteSchema(conn); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	err = conn.Exec(`INSERT INTO central_inventory (id, store_id, item_id, quantity_on_hand, quantity_reserved) VALUES ('a', 's', 'i', 5, 6)`).Error
	if err == nil {
		t.Fatal("expected reserved > on hand to violate the check constraint")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: central_inventory.store_id, central_inventory.item_id"), "") {
		t.Fatal("expected sqlite unique violation")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "ux_central_inventory_store_item"`), "ux_central_inventory_store_item") {
		t.Fatal("expected named postgres violation")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("unexpected match")
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "doomed"}).Error; err != nil {
				return err
			}
			panic("mid-transaction")
		})
	}()

	var count int64
	if err := db.Model(&testModel{}).Where("name = ?", "doomed").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic rollback, found %d rows", count)
	}
}

func TestDialectorFor(t *testing.T) {
	driver, _, err := dialectorFor(config.DBConfig{DSN: "postgres://x"})
	if err != nil || driver != DriverPostgres {
		t.Fatalf("expected default postgres driver, got %q err=%v", driver, err)
	}
	driver, _, err = dialectorFor(config.DBConfig{DSN: "file::memory:", Driver: " SQLite "})
	if err != nil || driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q err=%v", driver, err)
	}
	if _, _, err := dialectorFor(config.DBConfig{DSN: "x", Driver: "mysql"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: DriverSQLite}, nil); err == nil {
		t.Fatal("expected missing DSN error")
	}
}
