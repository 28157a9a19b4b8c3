// Package booking holds the seat rules shared by every ticket write: the
// grid bounds check and the field -> message error type used to report it.
package booking

import "fmt"

// Seating is the seat grid of an airplane.
type Seating struct {
	Rows       int
	SeatsInRow int
}

// Bounds for the seat grid of an airplane.
const (
	MaxRows       = 60
	MaxSeatsInRow = 10
)

// ValidateGrid checks that an airplane's grid lies within 1..MaxRows and
// 1..MaxSeatsInRow.  It returns nil or a FieldErrors value keyed by the
// airplane fields.
func ValidateGrid(s Seating) error {
	errs := FieldErrors{}
	for _, c := range []struct {
		value int
		field string
		max   int
	}{
		{s.Rows, "rows", MaxRows},
		{s.SeatsInRow, "seats_in_row", MaxSeatsInRow},
	} {
		switch {
		case c.value < 1:
			errs[c.field] = "Ensure this value is greater than or equal to 1."
		case c.value > c.max:
			errs[c.field] = fmt.Sprintf("Ensure this value is less than or equal to %d.", c.max)
		}
	}
	return errs.OrNil()
}

// Capacity is the number of seats in the grid.
func Capacity(s Seating) int {
	return s.Rows * s.SeatsInRow
}

// Available returns the seats left once sold tickets are subtracted.
func Available(s Seating, sold int) int {
	return Capacity(s) - sold
}

// ValidateTicket checks that (row, seat) lies inside the grid.  Both
// coordinates are checked; when both are out of range both fields are
// reported.  It returns nil or a FieldErrors value.
func ValidateTicket(row, seat int, s Seating) error {
	errs := FieldErrors{}
	for _, c := range []struct {
		value int
		field string
		bound string
		max   int
	}{
		{row, "row", "rows", s.Rows},
		{seat, "seat", "seats_in_row", s.SeatsInRow},
	} {
		if c.value < 1 || c.value > c.max {
			errs[c.field] = fmt.Sprintf(
				"%s number must be in available range: (1, %s): (1, %d)",
				c.field, c.bound, c.max,
			)
		}
	}
	return errs.OrNil()
}
