package model

import "time"

// Flight represents a row in the `flights` table.  CrewIDs is loaded from
// the `flight_crew` join table.
type Flight struct {
	ID            uint64    // flights.id
	RouteID       uint64    // flights.route_id
	AirplaneID    uint64    // flights.airplane_id
	DepartureTime time.Time // flights.departure_time (UTC)
	ArrivalTime   time.Time // flights.arrival_time (UTC)
	CrewIDs       []uint64  // flight_crew.crew_id for this flight
}

// DurationMinutes returns arrival minus departure in whole minutes.
func (f Flight) DurationMinutes() int {
	return int(f.ArrivalTime.Sub(f.DepartureTime) / time.Minute)
}

// Place is a single sold (row, seat) pair on a flight.
type Place struct {
	Row  int
	Seat int
}

// FlightView is a flight joined with its route airports and airplane plus
// the availability aggregate computed at query time.
type FlightView struct {
	Flight
	RouteSource      string   // source airport closest_big_city
	RouteDestination string   // destination airport closest_big_city
	Distance         uint32   // routes.distance
	AirplaneName     string   // airplanes.name
	Rows             int      // airplanes.rows
	SeatsInRow       int      // airplanes.seats_in_row
	TicketsAvailable int      // rows*seats_in_row - COUNT(tickets)
	Crew             []string // crew full names ordered by first name
	TakenPlaces      []Place  // filled for detail reads only
}

// NumberOfSeats is the capacity of the airplane assigned to the flight.
func (v FlightView) NumberOfSeats() int {
	return v.Rows * v.SeatsInRow
}
