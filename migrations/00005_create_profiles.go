package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateProfiles, downCreateProfiles)
}

func upCreateProfiles(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE profiles (
	  user_id TEXT PRIMARY KEY,
	  role TEXT NOT NULL CHECK (role IN ('trainer', 'student')),
	  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
	  first_name TEXT NOT NULL,
	  last_name TEXT NOT NULL,
	  display_name TEXT NOT NULL DEFAULT '',
	  bio TEXT NOT NULL DEFAULT '',
	  phone TEXT NOT NULL DEFAULT '',
	  specialty TEXT NOT NULL DEFAULT '',
	  address1 TEXT NOT NULL DEFAULT '',
	  address2 TEXT NOT NULL DEFAULT '',
	  city TEXT NOT NULL DEFAULT '',
	  state TEXT NOT NULL DEFAULT '',
	  zip TEXT NOT NULL DEFAULT '',
	  gender TEXT NOT NULL DEFAULT '',
	  images JSONB NOT NULL DEFAULT '[]'::jsonb,
	  id_image_key TEXT NOT NULL DEFAULT '',
	  certifications TEXT[] NOT NULL DEFAULT '{}',
	  price_per_class NUMERIC(10,2),
	  price_per_week NUMERIC(10,2),
	  price_per_month NUMERIC(10,2),
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_profiles_role_status ON profiles (role, status);
	`
	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateProfiles(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS profiles;`)
	return err
}
