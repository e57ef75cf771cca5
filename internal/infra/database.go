package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and applies the schema.
//
// The schema is managed as idempotent DDL rather than AutoMigrate: the ledger
// depends on CHECK constraints, unique indexes and exact numeric precision
// that AutoMigrate does not express.
func NewDatabase(dsn string, maxOpenConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(5)

	if err := applySchema(db); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

// RunMigrations applies the schema to an already-open connection (integration tests).
func RunMigrations(db *gorm.DB) error {
	return applySchema(db)
}

// schemaStatements is the full ledger schema. Every statement is safe to
// re-run on an already-migrated database.
//
// The CHECK and UNIQUE constraints are the storage-side guards for the ledger
// invariants: fill within [0,100], inventory within [0,produced], one run per
// usage log, one barrel per sequence number.
var schemaStatements = []struct{ descr, sql string }{
	{"pgcrypto", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
	{"barrel_batches", `
CREATE TABLE IF NOT EXISTS barrel_batches (
  id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  name          TEXT,
  purchase_date TIMESTAMPTZ    NOT NULL,
  num_barrels   INT            NOT NULL CHECK (num_barrels > 0),
  total_cost    NUMERIC(24,10) NOT NULL CHECK (total_cost > 0),
  supplier      TEXT,
  notes         TEXT,
  created_at    TIMESTAMPTZ    NOT NULL DEFAULT now()
)`},
	{"barrels", `
CREATE TABLE IF NOT EXISTS barrels (
  id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  code                 TEXT          NOT NULL,
  seq_no               INT           NOT NULL CHECK (seq_no > 0),
  batch_id             UUID          NOT NULL REFERENCES barrel_batches(id),
  group_label          TEXT,
  current_fill_percent NUMERIC(7,4)  NOT NULL DEFAULT 100
                       CHECK (current_fill_percent >= 0 AND current_fill_percent <= 100),
  status               TEXT          NOT NULL DEFAULT 'Aging'
                       CHECK (status IN ('Aging','InProduction','Empty','Reserved','Damaged')),
  notes                TEXT,
  created_at           TIMESTAMPTZ   NOT NULL DEFAULT now(),
  updated_at           TIMESTAMPTZ   NOT NULL DEFAULT now(),
  CONSTRAINT uni_barrels_code   UNIQUE (code),
  CONSTRAINT uni_barrels_seq_no UNIQUE (seq_no)
)`},
	{"usage_logs", `
CREATE TABLE IF NOT EXISTS usage_logs (
  id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  date           TIMESTAMPTZ    NOT NULL,
  barrel_id      UUID           NOT NULL REFERENCES barrels(id),
  percent_used   NUMERIC(7,4)   NOT NULL CHECK (percent_used > 0 AND percent_used <= 100),
  allocated_cost NUMERIC(24,10) NOT NULL CHECK (allocated_cost >= 0),
  notes          TEXT,
  created_at     TIMESTAMPTZ    NOT NULL DEFAULT now()
)`},
	{"bottling_runs", `
CREATE TABLE IF NOT EXISTS bottling_runs (
  id                     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  name                   TEXT           NOT NULL,
  date                   TIMESTAMPTZ    NOT NULL,
  bottle_type            TEXT           NOT NULL,
  total_bottles_produced INT            NOT NULL CHECK (total_bottles_produced > 0),
  total_cost             NUMERIC(24,10) NOT NULL CHECK (total_cost >= 0),
  unit_cost              NUMERIC(24,10) NOT NULL CHECK (unit_cost >= 0),
  remaining_inventory    INT            NOT NULL,
  notes                  TEXT,
  created_at             TIMESTAMPTZ    NOT NULL DEFAULT now(),
  updated_at             TIMESTAMPTZ    NOT NULL DEFAULT now(),
  CONSTRAINT chk_bottling_runs_remaining
    CHECK (remaining_inventory >= 0 AND remaining_inventory <= total_bottles_produced)
)`},
	{"bottling_run_usages", `
CREATE TABLE IF NOT EXISTS bottling_run_usages (
  id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  bottling_run_id UUID        NOT NULL REFERENCES bottling_runs(id),
  usage_log_id    UUID        NOT NULL REFERENCES usage_logs(id),
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uni_bottling_run_usages_usage_log_id UNIQUE (usage_log_id)
)`},
	{"shipments", `
CREATE TABLE IF NOT EXISTS shipments (
  id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  date            TIMESTAMPTZ    NOT NULL,
  bottling_run_id UUID           NOT NULL REFERENCES bottling_runs(id),
  quantity        INT            NOT NULL CHECK (quantity > 0),
  customer_ref    TEXT,
  cogs            NUMERIC(24,10) NOT NULL CHECK (cogs >= 0),
  notes           TEXT,
  created_at      TIMESTAMPTZ    NOT NULL DEFAULT now()
)`},
	{"idx_barrels_batch_id", `CREATE INDEX IF NOT EXISTS idx_barrels_batch_id ON barrels (batch_id)`},
	{"idx_usage_logs_barrel_id", `CREATE INDEX IF NOT EXISTS idx_usage_logs_barrel_id ON usage_logs (barrel_id)`},
	{"idx_bottling_run_usages_run", `CREATE INDEX IF NOT EXISTS idx_bottling_run_usages_bottling_run_id ON bottling_run_usages (bottling_run_id)`},
	{"idx_shipments_date", `CREATE INDEX IF NOT EXISTS idx_shipments_date ON shipments (date)`},
	{"idx_shipments_run", `CREATE INDEX IF NOT EXISTS idx_shipments_bottling_run_id ON shipments (bottling_run_id)`},
}

func applySchema(db *gorm.DB) error {
	for _, s := range schemaStatements {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("schema %q: %w", s.descr, err)
		}
	}
	return nil
}
