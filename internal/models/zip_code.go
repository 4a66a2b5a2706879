package models

// ZipCode is static reference data mapping a postal code to coordinates.
type ZipCode struct {
	Zip       string  `db:"zip" json:"zip"`
	City      string  `db:"city" json:"city"`
	State     string  `db:"state" json:"state"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
}
