package dto

// RosterQuery selects the roster document format.
type RosterQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// RosterDocument is a rendered roster ready to stream.
type RosterDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}
