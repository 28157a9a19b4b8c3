package model

import "github.com/iliyamo/airport-service/internal/booking"

// Airplane represents a row in the `airplanes` table joined with its type
// name.  Capacity is never stored; it is derived from the grid.
type Airplane struct {
	ID             uint64 // airplanes.id
	Name           string // airplanes.name
	Rows           int    // airplanes.rows (1..60)
	SeatsInRow     int    // airplanes.seats_in_row (1..10)
	AirplaneTypeID uint64 // airplanes.airplane_type_id
	TypeName       string // airplane_types.name (read only)
	Image          string // airplanes.image, relative path under the media root; empty when unset
}

// Seating returns the seat grid used for ticket validation.
func (a Airplane) Seating() booking.Seating {
	return booking.Seating{Rows: a.Rows, SeatsInRow: a.SeatsInRow}
}

// ValidateGrid checks the grid against booking.MaxRows and
// booking.MaxSeatsInRow.
func (a Airplane) ValidateGrid() error {
	return booking.ValidateGrid(a.Seating())
}

// Capacity is rows multiplied by seats per row.
func (a Airplane) Capacity() int {
	return booking.Capacity(a.Seating())
}
