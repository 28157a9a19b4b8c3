package model

// Airport represents a row in the `airports` table.  Airports are shared
// reference data: routes point at them as source and destination.
type Airport struct {
	ID             uint64 // airports.id
	Name           string // airports.name
	ClosestBigCity string // airports.closest_big_city (used by the city filter)
}

// AirplaneType represents a row in the `airplane_types` table.
type AirplaneType struct {
	ID   uint64 // airplane_types.id
	Name string // airplane_types.name
}

// Crew represents a crew member that can be assigned to flights.
type Crew struct {
	ID        uint64 // crews.id
	FirstName string // crews.first_name
	LastName  string // crews.last_name
}

// FullName joins first and last name with a single space.
func (c Crew) FullName() string {
	return c.FirstName + " " + c.LastName
}
