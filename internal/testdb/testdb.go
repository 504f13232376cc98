// Package testdb provisions isolated in-memory SQLite databases mirroring the
// Postgres schema closely enough for repository and service tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/restaurant-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  auth_uid TEXT NOT NULL UNIQUE,
  email TEXT,
  display_name TEXT,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  square_customer_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  parent_category_id TEXT,
  image_url TEXT,
  minimum_items INTEGER,
  maximum_items INTEGER,
  is_constructable INTEGER NOT NULL DEFAULT 0,
  availability TEXT NOT NULL DEFAULT 'isAvailable',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  availability TEXT NOT NULL DEFAULT 'isAvailable',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE category_items (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER,
  minimum_modifiers INTEGER,
  maximum_modifiers INTEGER,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (category_id, item_id)
);`,
	`CREATE TABLE modifiers (
  id TEXT PRIMARY KEY,
  category_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_cents INTEGER,
  availability TEXT NOT NULL DEFAULT 'isAvailable',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE constructed_items (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  user_id TEXT,
  name TEXT,
  is_favorite INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE constructed_item_category_items (
  constructed_item_id TEXT NOT NULL,
  category_item_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (constructed_item_id, category_item_id)
);`,
	`CREATE TABLE constructed_item_modifiers (
  constructed_item_id TEXT NOT NULL,
  modifier_id TEXT NOT NULL,
  category_item_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (constructed_item_id, modifier_id)
);`,
	`CREATE TABLE offers (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  discount_price_cents INTEGER,
  discount_percent INTEGER,
  availability TEXT NOT NULL DEFAULT 'isAvailable',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE outstanding_orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  prepared_for_date DATETIME,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE outstanding_order_constructed_items (
  outstanding_order_id TEXT NOT NULL,
  constructed_item_id TEXT NOT NULL UNIQUE,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  created_at DATETIME,
  PRIMARY KEY (outstanding_order_id, constructed_item_id)
);`,
	`CREATE TABLE outstanding_order_offers (
  outstanding_order_id TEXT NOT NULL,
  offer_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (outstanding_order_id, offer_id)
);`,
	`CREATE TABLE purchased_orders (
  id TEXT PRIMARY KEY,
  number INTEGER UNIQUE,
  user_id TEXT,
  outstanding_order_id TEXT NOT NULL UNIQUE,
  payment_provider TEXT NOT NULL,
  transaction_id TEXT NOT NULL,
  currency TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  charged_cents INTEGER NOT NULL,
  purchased_at DATETIME NOT NULL,
  prepared_for_date DATETIME,
  note TEXT,
  progress TEXT NOT NULL DEFAULT 'isPending',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TRIGGER purchased_orders_assign_number AFTER INSERT ON purchased_orders
WHEN NEW.number IS NULL
BEGIN
  UPDATE purchased_orders
  SET number = (SELECT COALESCE(MAX(number), 0) + 1 FROM purchased_orders)
  WHERE id = NEW.id;
END;`,
	`CREATE TABLE purchased_constructed_items (
  id TEXT PRIMARY KEY,
  purchased_order_id TEXT NOT NULL,
  constructed_item_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  name TEXT,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_price_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE purchased_constructed_item_category_items (
  id TEXT PRIMARY KEY,
  purchased_constructed_item_id TEXT NOT NULL,
  category_item_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  item_name TEXT NOT NULL,
  paid_price_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE purchased_constructed_item_modifiers (
  id TEXT PRIMARY KEY,
  purchased_constructed_item_id TEXT NOT NULL,
  modifier_id TEXT NOT NULL,
  category_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  paid_price_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE purchased_order_offers (
  purchased_order_id TEXT NOT NULL,
  offer_id TEXT NOT NULL,
  code TEXT NOT NULL,
  discount_price_cents INTEGER,
  discount_percent INTEGER,
  created_at DATETIME,
  PRIMARY KEY (purchased_order_id, offer_id)
);`,
	`CREATE TABLE checkout_attempts (
  outstanding_order_id TEXT PRIMARY KEY,
  user_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  payment_provider TEXT NOT NULL,
  idempotency_key TEXT NOT NULL DEFAULT '',
  transaction_id TEXT,
  purchased_order_id TEXT,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE store_hours (
  weekday INTEGER PRIMARY KEY,
  opening_hour INTEGER NOT NULL,
  opening_minute INTEGER NOT NULL,
  closing_hour INTEGER NOT NULL,
  closing_minute INTEGER NOT NULL,
  is_open INTEGER NOT NULL DEFAULT 1,
  is_closing_next_day INTEGER NOT NULL DEFAULT 0
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE outbox_dlq (
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
);`,
}

// Open returns a fresh schema-provisioned database. Each call gets its own
// named in-memory database so tests never observe each other's rows.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// a single connection serialises writers the way row locks would
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// Client wraps Open in the pkg/db client used by services.
func Client(t *testing.T) *db.Client {
	t.Helper()
	return db.Wrap(Open(t))
}
