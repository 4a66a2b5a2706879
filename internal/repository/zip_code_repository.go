package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// ZipCodeRepository reads the zip_codes reference table.
type ZipCodeRepository struct {
	db *sqlx.DB
}

// NewZipCodeRepository constructs the repository.
func NewZipCodeRepository(db *sqlx.DB) *ZipCodeRepository {
	return &ZipCodeRepository{db: db}
}

// FindZip returns the coordinates for a postal code or sql.ErrNoRows.
func (r *ZipCodeRepository) FindZip(ctx context.Context, zip string) (*models.ZipCode, error) {
	const query = `SELECT zip, city, state, latitude, longitude FROM zip_codes WHERE zip = $1`
	var entry models.ZipCode
	if err := r.db.GetContext(ctx, &entry, query, zip); err != nil {
		return nil, err
	}
	return &entry, nil
}
