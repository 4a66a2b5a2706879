package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-booking-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "booking", Password: "secret", Name: "class_booking", SSLMode: "require"})
	assert.Equal(t, "host=db port=5433 user=booking password=secret dbname=class_booking sslmode=require", dsn)
}

func TestDSNQuotesAndSkipsEmpty(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "booking", Password: `it's a s\cret`, Name: "class_booking"})
	assert.Equal(t, `host=db port=5432 user=booking password='it\'s a s\\cret' dbname=class_booking`, dsn)
}
