package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/class-booking-api/internal/geo"
)

func init() {
	goose.AddMigrationContext(upCreateZipCodes, downCreateZipCodes)
}

func upCreateZipCodes(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE zip_codes (
	  zip VARCHAR(5) PRIMARY KEY,
	  city TEXT NOT NULL,
	  state VARCHAR(2) NOT NULL,
	  latitude DOUBLE PRECISION NOT NULL,
	  longitude DOUBLE PRECISION NOT NULL
	);
	`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO zip_codes (zip, city, state, latitude, longitude) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, z := range geo.SeedZipCodes {
		if _, err := stmt.ExecContext(ctx, z.Zip, z.City, z.State, z.Latitude, z.Longitude); err != nil {
			return err
		}
	}
	return nil
}

func downCreateZipCodes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS zip_codes;`)
	return err
}
