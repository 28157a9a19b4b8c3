// Package queue carries order events from the API to the message broker
// and back into the order log.
package queue

import (
	"time"

	"github.com/iliyamo/airport-service/internal/model"
)

// OrderCreatedEvent is published once an order and all of its tickets have
// been committed.  It is self-contained so consumers never query the
// primary database.
type OrderCreatedEvent struct {
	OrderID   uint64        `json:"order_id"`
	UserID    uint64        `json:"user_id"`
	CreatedAt string        `json:"created_at"` // RFC3339, UTC
	Tickets   []EventTicket `json:"tickets"`
}

// EventTicket is one seat of the order.
type EventTicket struct {
	TicketID uint64 `json:"ticket_id"`
	FlightID uint64 `json:"flight_id"`
	Row      int    `json:"row"`
	Seat     int    `json:"seat"`
}

// NewOrderCreatedEvent builds the event for a committed order.
func NewOrderCreatedEvent(o model.Order) OrderCreatedEvent {
	ev := OrderCreatedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		Tickets:   make([]EventTicket, 0, len(o.Tickets)),
	}
	for _, t := range o.Tickets {
		ev.Tickets = append(ev.Tickets, EventTicket{TicketID: t.ID, FlightID: t.FlightID, Row: t.Row, Seat: t.Seat})
	}
	return ev
}
