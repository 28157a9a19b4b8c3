package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
	"github.com/iliyamo/airport-service/internal/service"
)

// TicketHandler serves /v1/tickets.  Customers see and edit tickets of
// their own orders only; admins see every ticket.
type TicketHandler struct {
	Tickets *repository.TicketRepo
	Orders  *repository.OrderRepo
	Flights *repository.FlightRepo
}

func NewTicketHandler(t *repository.TicketRepo, o *repository.OrderRepo, f *repository.FlightRepo) *TicketHandler {
	return &TicketHandler{Tickets: t, Orders: o, Flights: f}
}

type ticketReq struct {
	Row    int    `json:"row"`
	Seat   int    `json:"seat"`
	Flight uint64 `json:"flight" validate:"required"`
	Order  uint64 `json:"order" validate:"required"`
}

func presentTicket(v model.TicketView, p Projection) echo.Map {
	if p == ProjectionWrite {
		return echo.Map{"id": v.ID, "row": v.Row, "seat": v.Seat, "flight": v.FlightID, "order": v.OrderID}
	}
	return echo.Map{
		"id":    v.ID,
		"row":   v.Row,
		"seat":  v.Seat,
		"order": v.OrderID,
		"flight": echo.Map{
			"id":                v.FlightID,
			"route_source":      v.RouteSource,
			"route_destination": v.RouteDestination,
			"departure_time":    formatDatetime(v.DepartureTime),
			"airplane":          v.AirplaneName,
		},
	}
}

// parseTicketFilter reads ?order=.  A value that is not a positive
// integer is a 400, not an empty filter.
func parseTicketFilter(c echo.Context) (repository.TicketFilter, error) {
	var f repository.TicketFilter
	if raw := strings.TrimSpace(c.QueryParam("order")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return f, booking.Field("order", "A valid integer is required.")
		}
		f.OrderID = id
	}
	return f, nil
}

// visible reports whether the caller may see a ticket owned by owner.
func visible(c echo.Context, uid, owner uint64) bool {
	return owner == uid || isAdmin(c)
}

func (h *TicketHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	f, err := parseTicketFilter(c)
	if err != nil {
		return respondError(c, err, "ticket")
	}
	if !isAdmin(c) {
		f.OwnerID = uid
	}
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "ticket")
	}
	items, total, err := h.Tickets.List(c.Request().Context(), f, page.window())
	if err != nil {
		return respondError(c, err, "ticket")
	}
	out := make([]echo.Map, 0, len(items))
	for _, v := range items {
		out = append(out, presentTicket(v, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

// load fetches a ticket the caller may see; others are reported missing.
func (h *TicketHandler) load(c echo.Context) (model.TicketView, uint64, error) {
	uid, err := getUserID(c)
	if err != nil {
		return model.TicketView{}, 0, err
	}
	id, ok := parseID(c)
	if !ok {
		return model.TicketView{}, uid, errBadID
	}
	v, err := h.Tickets.Get(c.Request().Context(), id)
	if err != nil {
		return v, uid, err
	}
	if !visible(c, uid, v.OwnerID) {
		return v, uid, repository.ErrNotFound
	}
	return v, uid, nil
}

func (h *TicketHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errNoUser):
		return unauthorized(c)
	case errors.Is(err, errBadID):
		return badID(c)
	}
	return respondError(c, err, "ticket")
}

func (h *TicketHandler) Get(c echo.Context) error {
	v, _, err := h.load(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, presentTicket(v, projectionFor(ActionRetrieve)))
}

// checkWrite validates the target order and the seat against the flight.
func (h *TicketHandler) checkWrite(c echo.Context, uid uint64, req ticketReq) error {
	ctx := c.Request().Context()
	owner, err := h.Orders.OwnerOf(ctx, req.Order)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !visible(c, uid, owner)) {
		return booking.Field("order", "object does not exist")
	}
	if err != nil {
		return err
	}
	seating, err := h.Flights.Seating(ctx, req.Flight)
	if errors.Is(err, repository.ErrNotFound) {
		return booking.Field("flight", "object does not exist")
	}
	if err != nil {
		return err
	}
	return booking.ValidateTicket(req.Row, req.Seat, seating)
}

// Create adds a ticket to an existing order of the caller.
func (h *TicketHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "ticket")
	}
	if err := h.checkWrite(c, uid, req); err != nil {
		return respondError(c, err, "ticket")
	}
	t := model.Ticket{Row: req.Row, Seat: req.Seat, FlightID: req.Flight, OrderID: req.Order}
	if err := h.Tickets.Create(c.Request().Context(), &t); err != nil {
		return respondError(c, err, "ticket")
	}
	return c.JSON(http.StatusCreated, presentTicket(model.TicketView{Ticket: t}, projectionFor(ActionCreate)))
}

// Update serves PUT and PATCH.  Moving a ticket goes through the same
// seat validation and uniqueness checks as creating one.
func (h *TicketHandler) Update(c echo.Context) error {
	cur, uid, err := h.load(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req ticketReq
	if c.Request().Method == http.MethodPatch {
		req = ticketReq{Row: cur.Row, Seat: cur.Seat, Flight: cur.FlightID, Order: cur.OrderID}
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "ticket")
	}
	if err := h.checkWrite(c, uid, req); err != nil {
		return respondError(c, err, "ticket")
	}
	t := model.Ticket{ID: cur.ID, Row: req.Row, Seat: req.Seat, FlightID: req.Flight, OrderID: req.Order}
	if err := h.Tickets.Update(c.Request().Context(), t); err != nil {
		return respondError(c, err, "ticket")
	}
	return c.JSON(http.StatusOK, presentTicket(model.TicketView{Ticket: t}, projectionFor(ActionUpdate)))
}

func (h *TicketHandler) Delete(c echo.Context) error {
	v, _, err := h.load(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Tickets.Delete(c.Request().Context(), v.ID); err != nil {
		return respondError(c, err, "ticket")
	}
	return c.NoContent(http.StatusNoContent)
}

// ETicket handles GET /v1/tickets/:id/e-ticket and returns the PDF.
func (h *TicketHandler) ETicket(c echo.Context) error {
	v, _, err := h.load(c)
	if err != nil {
		return h.fail(c, err)
	}
	doc, err := h.Tickets.Document(c.Request().Context(), v.ID)
	if err != nil {
		return respondError(c, err, "ticket")
	}
	pdf, err := service.RenderETicket(doc)
	if err != nil {
		return respondError(c, err, "ticket")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="e-ticket-%d.pdf"`, v.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
