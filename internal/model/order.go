package model

import "time"

// Order groups the tickets bought by one user in one request.  Deleting an
// order removes its tickets (ON DELETE CASCADE).
type Order struct {
	ID        uint64    // orders.id
	UserID    uint64    // orders.user_id, always the authenticated caller
	CreatedAt time.Time // orders.created_at (UTC)
	Tickets   []Ticket  // tickets belonging to the order
}

// Ticket is one seat on one flight within an order.
type Ticket struct {
	ID       uint64 // tickets.id
	Row      int    // tickets.row, 1..airplane.rows
	Seat     int    // tickets.seat, 1..airplane.seats_in_row
	FlightID uint64 // tickets.flight_id
	OrderID  uint64 // tickets.order_id
}

// TicketView is a ticket together with a short summary of its flight, used
// by ticket list/detail responses.
type TicketView struct {
	Ticket
	RouteSource      string
	RouteDestination string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	AirplaneName     string
	OwnerID          uint64 // orders.user_id
}

// TicketDocument holds everything printed on an e-ticket.
type TicketDocument struct {
	TicketView
	PassengerEmail string
	PassportNumber string
}
