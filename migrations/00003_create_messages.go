package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateMessages, downCreateMessages)
}

func upCreateMessages(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE messages (
	  message_id TEXT PRIMARY KEY,
	  session_id TEXT NOT NULL REFERENCES class_sessions (session_id),
	  sender_id TEXT NOT NULL,
	  message_text TEXT NOT NULL,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_messages_session_created ON messages (session_id, created_at);
	`
	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateMessages(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS messages;`)
	return err
}
