package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateClassSessions, downCreateClassSessions)
}

func upCreateClassSessions(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE class_sessions (
	  session_id TEXT PRIMARY KEY,
	  class_id TEXT NOT NULL,
	  trainer_id TEXT NOT NULL,
	  trainer_name TEXT NOT NULL DEFAULT '',
	  class_name TEXT NOT NULL,
	  overview TEXT NOT NULL DEFAULT '',
	  address_line1 TEXT NOT NULL DEFAULT '',
	  address_line2 TEXT NOT NULL DEFAULT '',
	  city TEXT NOT NULL DEFAULT '',
	  state TEXT NOT NULL DEFAULT '',
	  zip VARCHAR(5) NOT NULL,
	  latitude DOUBLE PRECISION NOT NULL,
	  longitude DOUBLE PRECISION NOT NULL,
	  timezone TEXT NOT NULL DEFAULT 'UTC',
	  start_time TIMESTAMP WITH TIME ZONE NOT NULL,
	  end_time TIMESTAMP WITH TIME ZONE NOT NULL,
	  capacity INTEGER NOT NULL CHECK (capacity > 0),
	  count_registered INTEGER NOT NULL DEFAULT 0,
	  status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'CANCELLED')),
	  price_per_class NUMERIC(12, 2) NOT NULL DEFAULT 0,
	  currency VARCHAR(3) NOT NULL DEFAULT 'USD',
	  product_id TEXT NOT NULL DEFAULT '',
	  price_id TEXT NOT NULL DEFAULT '',
	  tags TEXT[] NOT NULL DEFAULT '{}',
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  cancelled_at TIMESTAMP WITH TIME ZONE,
	  CONSTRAINT class_sessions_window CHECK (end_time > start_time),
	  CONSTRAINT class_sessions_count CHECK (count_registered >= 0 AND count_registered <= capacity)
	);
	CREATE INDEX idx_class_sessions_trainer ON class_sessions (trainer_id);
	CREATE INDEX idx_class_sessions_class ON class_sessions (class_id);
	CREATE INDEX idx_class_sessions_zip_active ON class_sessions (zip) WHERE status = 'ACTIVE';
	CREATE INDEX idx_class_sessions_geo_active ON class_sessions (latitude, longitude) WHERE status = 'ACTIVE';
	`
	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateClassSessions(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS class_sessions;`)
	return err
}
