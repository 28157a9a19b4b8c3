package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

// FlightHandler serves /v1/flights.  Availability is always computed by
// the repository at read time, so these responses are never cached.
type FlightHandler struct {
	Repo *repository.FlightRepo
}

func NewFlightHandler(r *repository.FlightRepo) *FlightHandler { return &FlightHandler{Repo: r} }

type flightReq struct {
	Route         uint64   `json:"route" validate:"required"`
	Airplane      uint64   `json:"airplane" validate:"required"`
	Crew          []uint64 `json:"crew"`
	DepartureTime string   `json:"departure_time" validate:"required"`
	ArrivalTime   string   `json:"arrival_time" validate:"required"`
}

// toFlight parses the datetimes and checks their order.
func (r flightReq) toFlight(id uint64) (model.Flight, error) {
	f := model.Flight{ID: id, RouteID: r.Route, AirplaneID: r.Airplane, CrewIDs: r.Crew}
	errs := booking.FieldErrors{}
	var ok bool
	if f.DepartureTime, ok = parseDatetime(r.DepartureTime); !ok {
		errs["departure_time"] = datetimeFormatMsg
	}
	if f.ArrivalTime, ok = parseDatetime(r.ArrivalTime); !ok {
		errs["arrival_time"] = datetimeFormatMsg
	}
	if len(errs) == 0 && !f.ArrivalTime.After(f.DepartureTime) {
		errs["arrival_time"] = "arrival_time must be after departure_time"
	}
	if f.CrewIDs == nil {
		f.CrewIDs = []uint64{}
	}
	return f, errs.OrNil()
}

func parseFlightFilter(c echo.Context) repository.FlightFilter {
	return repository.FlightFilter{
		DepartureTime:    c.QueryParam("departure_time"),
		RouteSource:      c.QueryParam("route_source"),
		RouteDestination: c.QueryParam("route_destination"),
	}
}

func presentFlightWrite(f model.Flight) echo.Map {
	return echo.Map{
		"id":                      f.ID,
		"route":                   f.RouteID,
		"airplane":                f.AirplaneID,
		"crew":                    f.CrewIDs,
		"departure_time":          formatDatetime(f.DepartureTime),
		"arrival_time":            formatDatetime(f.ArrivalTime),
		"flight_duration_minutes": f.DurationMinutes(),
	}
}

func presentFlight(v model.FlightView, p Projection) echo.Map {
	if p == ProjectionWrite {
		return presentFlightWrite(v.Flight)
	}
	out := echo.Map{
		"id":                v.ID,
		"route_source":      v.RouteSource,
		"route_destination": v.RouteDestination,
		"departure_time":    formatDatetime(v.DepartureTime),
		"arrival_time":      formatDatetime(v.ArrivalTime),
		"airplane":          v.AirplaneName,
		"crew":              v.Crew,
		"tickets_available": v.TicketsAvailable,
	}
	if p == ProjectionDetail {
		places := make([]echo.Map, 0, len(v.TakenPlaces))
		for _, pl := range v.TakenPlaces {
			places = append(places, echo.Map{"row": pl.Row, "seat": pl.Seat})
		}
		out["flight_duration_minutes"] = v.DurationMinutes()
		out["distance"] = v.Distance
		out["number_of_seats"] = v.NumberOfSeats()
		out["taken_places"] = places
	}
	return out
}

// List handles GET /v1/flights?departure_time=&route_source=&route_destination=.
func (h *FlightHandler) List(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "flight")
	}
	items, total, err := h.Repo.List(c.Request().Context(), parseFlightFilter(c), page.window())
	if err != nil {
		return respondError(c, err, "flight")
	}
	out := make([]echo.Map, 0, len(items))
	for _, v := range items {
		out = append(out, presentFlight(v, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *FlightHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	v, err := h.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "flight")
	}
	return c.JSON(http.StatusOK, presentFlight(v, projectionFor(ActionRetrieve)))
}

func (h *FlightHandler) Create(c echo.Context) error {
	var req flightReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "flight")
	}
	f, err := req.toFlight(0)
	if err != nil {
		return respondError(c, err, "flight")
	}
	if err := h.Repo.Create(c.Request().Context(), &f); err != nil {
		return respondError(c, err, "flight")
	}
	return c.JSON(http.StatusCreated, presentFlight(model.FlightView{Flight: f}, projectionFor(ActionCreate)))
}

// Update serves PUT and PATCH; the crew list is replaced as a whole.
func (h *FlightHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "flight")
	}
	var req flightReq
	if c.Request().Method == http.MethodPatch {
		// seconds are kept so untouched times round-trip exactly
		req = flightReq{
			Route:         cur.RouteID,
			Airplane:      cur.AirplaneID,
			Crew:          cur.CrewIDs,
			DepartureTime: cur.DepartureTime.UTC().Format(datetimeSecondsLayout),
			ArrivalTime:   cur.ArrivalTime.UTC().Format(datetimeSecondsLayout),
		}
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "flight")
	}
	f, err := req.toFlight(id)
	if err != nil {
		return respondError(c, err, "flight")
	}
	if err := h.Repo.Update(ctx, &f); err != nil {
		return respondError(c, err, "flight")
	}
	return c.JSON(http.StatusOK, presentFlight(model.FlightView{Flight: f}, projectionFor(ActionUpdate)))
}

// Delete removes the flight together with its tickets and crew links.
func (h *FlightHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "flight")
	}
	return c.NoContent(http.StatusNoContent)
}
