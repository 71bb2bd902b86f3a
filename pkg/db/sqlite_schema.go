package db

import (
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors pkg/migrate/migrations for local sqlite databases and
// tests. Enum columns are plain TEXT; the enum types reject unknown values
// when rows are scanned or written.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS indents (
  id TEXT PRIMARY KEY,
  college_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  status TEXT NOT NULL,
  priority TEXT NOT NULL,
  justification TEXT NOT NULL,
  required_by DATETIME,
  requester_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  version INTEGER NOT NULL DEFAULT 1,
  submitted_at DATETIME,
  approved_at DATETIME,
  fulfilled_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS indent_items (
  id TEXT PRIMARY KEY,
  indent_id TEXT NOT NULL REFERENCES indents(id),
  line_no INTEGER NOT NULL,
  item_id TEXT NOT NULL,
  requested_qty NUMERIC NOT NULL CHECK (requested_qty > 0),
  unit TEXT NOT NULL,
  approved_qty NUMERIC,
  remarks TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS central_inventory (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity_on_hand NUMERIC NOT NULL DEFAULT 0,
  quantity_reserved NUMERIC NOT NULL DEFAULT 0,
  min_stock_level NUMERIC NOT NULL DEFAULT 0,
  reorder_point NUMERIC NOT NULL DEFAULT 0,
  unit TEXT NOT NULL DEFAULT '',
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (quantity_reserved >= 0 AND quantity_reserved <= quantity_on_hand)
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_central_inventory_store_item ON central_inventory (store_id, item_id)`,
	`CREATE TABLE IF NOT EXISTS inventory_reservations (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  committed_qty NUMERIC NOT NULL DEFAULT 0,
  released_qty NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  reference_type TEXT,
  reference_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS inventory_transactions (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  on_hand_after NUMERIC NOT NULL,
  reserved_after NUMERIC NOT NULL,
  reason TEXT,
  reference_type TEXT,
  reference_id TEXT,
  actor_id TEXT,
  created_at DATETIME
)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_transactions_store_item ON inventory_transactions (store_id, item_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS material_issues (
  id TEXT PRIMARY KEY,
  indent_id TEXT NOT NULL REFERENCES indents(id),
  store_id TEXT NOT NULL,
  college_id TEXT NOT NULL,
  status TEXT NOT NULL,
  issued_by TEXT NOT NULL,
  issue_date DATETIME NOT NULL,
  dispatch_date DATETIME,
  dispatched_by TEXT,
  vehicle_ref TEXT,
  in_transit_at DATETIME,
  receipt_date DATETIME,
  received_by TEXT,
  discrepancy_note TEXT,
  cancel_reason TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS material_issue_items (
  id TEXT PRIMARY KEY,
  material_issue_id TEXT NOT NULL REFERENCES material_issues(id),
  line_no INTEGER NOT NULL,
  indent_item_id TEXT NOT NULL REFERENCES indent_items(id),
  item_id TEXT NOT NULL,
  quantity_issued NUMERIC NOT NULL CHECK (quantity_issued > 0),
  quantity_received NUMERIC,
  reservation_id TEXT NOT NULL,
  remarks TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS approval_decisions (
  id TEXT PRIMARY KEY,
  indent_id TEXT NOT NULL,
  material_issue_id TEXT,
  action TEXT NOT NULL,
  decision TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  reason TEXT,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json BLOB NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
)`,
}

// EnsureSQLiteSchema creates the service tables on a sqlite connection.
func EnsureSQLiteSchema(conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
