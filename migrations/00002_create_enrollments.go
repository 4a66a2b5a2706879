package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateEnrollments, downCreateEnrollments)
}

func upCreateEnrollments(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE enrollments (
	  student_id TEXT NOT NULL,
	  session_id TEXT NOT NULL REFERENCES class_sessions (session_id),
	  status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'CANCELLED')),
	  enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  cancelled_at TIMESTAMP WITH TIME ZONE,
	  PRIMARY KEY (student_id, session_id)
	);
	CREATE INDEX idx_enrollments_session_active ON enrollments (session_id) WHERE status = 'ACTIVE';
	`
	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateEnrollments(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS enrollments;`)
	return err
}
