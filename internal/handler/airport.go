package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

// AirportHandler serves /v1/airports.
type AirportHandler struct {
	Repo *repository.AirportRepo
}

func NewAirportHandler(r *repository.AirportRepo) *AirportHandler { return &AirportHandler{Repo: r} }

type airportReq struct {
	Name           string `json:"name" validate:"required,max=255"`
	ClosestBigCity string `json:"closest_big_city" validate:"required,max=255"`
}

// Airports look the same in every projection.
func presentAirport(a model.Airport, _ Projection) echo.Map {
	return echo.Map{"id": a.ID, "name": a.Name, "closest_big_city": a.ClosestBigCity}
}

func parseAirportFilter(c echo.Context) repository.AirportFilter {
	return repository.AirportFilter{ClosestBigCity: c.QueryParam("closest_big_city")}
}

// List handles GET /v1/airports?closest_big_city=.
func (h *AirportHandler) List(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "airport")
	}
	items, total, err := h.Repo.List(c.Request().Context(), parseAirportFilter(c), page.window())
	if err != nil {
		return respondError(c, err, "airport")
	}
	out := make([]echo.Map, 0, len(items))
	for _, a := range items {
		out = append(out, presentAirport(a, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *AirportHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	a, err := h.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "airport")
	}
	return c.JSON(http.StatusOK, presentAirport(a, projectionFor(ActionRetrieve)))
}

func (h *AirportHandler) Create(c echo.Context) error {
	var req airportReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "airport")
	}
	a := model.Airport{Name: req.Name, ClosestBigCity: req.ClosestBigCity}
	if err := h.Repo.Create(c.Request().Context(), &a); err != nil {
		return respondError(c, err, "airport")
	}
	return c.JSON(http.StatusCreated, presentAirport(a, projectionFor(ActionCreate)))
}

func (h *AirportHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "airport")
	}
	var req airportReq
	if c.Request().Method == http.MethodPatch {
		req = airportReq{Name: cur.Name, ClosestBigCity: cur.ClosestBigCity}
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "airport")
	}
	a := model.Airport{ID: id, Name: req.Name, ClosestBigCity: req.ClosestBigCity}
	if err := h.Repo.Update(ctx, a); err != nil {
		return respondError(c, err, "airport")
	}
	return c.JSON(http.StatusOK, presentAirport(a, projectionFor(ActionUpdate)))
}

// Delete also removes every route touching the airport.
func (h *AirportHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "airport")
	}
	return c.NoContent(http.StatusNoContent)
}
