package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

// RouteHandler serves /v1/routes.
type RouteHandler struct {
	Repo *repository.RouteRepo
}

func NewRouteHandler(r *repository.RouteRepo) *RouteHandler { return &RouteHandler{Repo: r} }

type routeReq struct {
	Source      uint64 `json:"source" validate:"required"`
	Destination uint64 `json:"destination" validate:"required"`
	Distance    uint32 `json:"distance" validate:"required,min=1"`
}

// presentRoute writes ids on create/update and city names on reads; the
// detail view adds the airport names.
func presentRoute(v model.RouteView, p Projection) echo.Map {
	if p == ProjectionWrite {
		return echo.Map{"id": v.ID, "source": v.SourceID, "destination": v.DestinationID, "distance": v.Distance}
	}
	out := echo.Map{
		"id":               v.ID,
		"source_city":      v.SourceCity,
		"destination_city": v.DestinationCity,
		"distance":         v.Distance,
	}
	if p == ProjectionDetail {
		out["source_airport"] = v.SourceAirport
		out["destination_airport"] = v.DestinationAirport
	}
	return out
}

func (h *RouteHandler) List(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "route")
	}
	items, total, err := h.Repo.List(c.Request().Context(), page.window())
	if err != nil {
		return respondError(c, err, "route")
	}
	out := make([]echo.Map, 0, len(items))
	for _, v := range items {
		out = append(out, presentRoute(v, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *RouteHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	v, err := h.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "route")
	}
	return c.JSON(http.StatusOK, presentRoute(v, projectionFor(ActionRetrieve)))
}

func (h *RouteHandler) Create(c echo.Context) error {
	var req routeReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "route")
	}
	rt := model.Route{SourceID: req.Source, DestinationID: req.Destination, Distance: req.Distance}
	if err := h.Repo.Create(c.Request().Context(), &rt); err != nil {
		return respondError(c, err, "route")
	}
	return c.JSON(http.StatusCreated, presentRoute(model.RouteView{Route: rt}, projectionFor(ActionCreate)))
}

func (h *RouteHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "route")
	}
	var req routeReq
	if c.Request().Method == http.MethodPatch {
		req = routeReq{Source: cur.SourceID, Destination: cur.DestinationID, Distance: cur.Distance}
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "route")
	}
	rt := model.Route{ID: id, SourceID: req.Source, DestinationID: req.Destination, Distance: req.Distance}
	if err := h.Repo.Update(ctx, rt); err != nil {
		return respondError(c, err, "route")
	}
	return c.JSON(http.StatusOK, presentRoute(model.RouteView{Route: rt}, projectionFor(ActionUpdate)))
}

func (h *RouteHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "route")
	}
	return c.NoContent(http.StatusNoContent)
}
