package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/queue"
	"github.com/iliyamo/airport-service/internal/repository"
)

// OrderHandler serves /v1/orders.  Every operation is scoped to the
// authenticated caller; the owner is never taken from the body.
type OrderHandler struct {
	Orders    *repository.OrderRepo
	Flights   *repository.FlightRepo
	Publisher queue.Publisher
}

func NewOrderHandler(o *repository.OrderRepo, f *repository.FlightRepo, p queue.Publisher) *OrderHandler {
	if p == nil {
		p = queue.NopPublisher{}
	}
	return &OrderHandler{Orders: o, Flights: f, Publisher: p}
}

// Row and seat bounds come from the airplane, see checkSeats.
type ticketSpecReq struct {
	Row    int    `json:"row"`
	Seat   int    `json:"seat"`
	Flight uint64 `json:"flight" validate:"required"`
}

type orderReq struct {
	Tickets []ticketSpecReq `json:"tickets" validate:"dive"`
}

func presentOrder(o model.Order, _ Projection) echo.Map {
	tickets := make([]echo.Map, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		tickets = append(tickets, echo.Map{"id": t.ID, "row": t.Row, "seat": t.Seat, "flight": t.FlightID})
	}
	return echo.Map{"id": o.ID, "created_at": formatDatetime(o.CreatedAt), "tickets": tickets}
}

// checkSeats runs the seat validation for every requested ticket before
// anything is written.  The repository repeats it inside the transaction.
func checkSeats(ctx context.Context, flights *repository.FlightRepo, specs []ticketSpecReq) error {
	errs := booking.FieldErrors{}
	for i, s := range specs {
		prefix := fmt.Sprintf("tickets[%d]", i)
		seating, err := flights.Seating(ctx, s.Flight)
		if errors.Is(err, repository.ErrNotFound) {
			errs[prefix+".flight"] = "object does not exist"
			continue
		}
		if err != nil {
			return err
		}
		if fe, ok := booking.AsFieldErrors(booking.ValidateTicket(s.Row, s.Seat, seating)); ok {
			for k, v := range fe.Prefix(prefix) {
				errs[k] = v
			}
		}
	}
	return errs.OrNil()
}

func (h *OrderHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "order")
	}
	orders, total, err := h.Orders.List(c.Request().Context(), uid, page.window())
	if err != nil {
		return respondError(c, err, "order")
	}
	out := make([]echo.Map, 0, len(orders))
	for _, o := range orders {
		out = append(out, presentOrder(o, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *OrderHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	o, err := h.Orders.Get(c.Request().Context(), id, uid)
	if err != nil {
		return respondError(c, err, "order")
	}
	return c.JSON(http.StatusOK, presentOrder(o, projectionFor(ActionRetrieve)))
}

// Create handles POST /v1/orders {"tickets":[{"row":1,"seat":1,"flight":3}]}.
// The order and all tickets are committed together or not at all; the
// order.created event goes out only after the commit.
func (h *OrderHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req orderReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "order")
	}
	ctx := c.Request().Context()
	if err := checkSeats(ctx, h.Flights, req.Tickets); err != nil {
		return respondError(c, err, "order")
	}

	specs := make([]repository.TicketSpec, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		specs = append(specs, repository.TicketSpec{Row: t.Row, Seat: t.Seat, FlightID: t.Flight})
	}
	order, err := h.Orders.Create(ctx, uid, specs)
	if err != nil {
		return respondError(c, err, "order")
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Publisher.PublishOrderCreated(pubCtx, queue.NewOrderCreatedEvent(order)); err != nil {
		log.Printf("[EVENTS] publish order.created order_id=%d: %v", order.ID, err)
	}
	return c.JSON(http.StatusCreated, presentOrder(order, projectionFor(ActionCreate)))
}

// Delete removes one of the caller's orders and releases its seats.
func (h *OrderHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.Orders.Delete(c.Request().Context(), id, uid); err != nil {
		return respondError(c, err, "order")
	}
	return c.NoContent(http.StatusNoContent)
}
