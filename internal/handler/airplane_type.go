package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

type AirplaneTypeHandler struct {
	Repo *repository.AirplaneTypeRepo
}

func NewAirplaneTypeHandler(r *repository.AirplaneTypeRepo) *AirplaneTypeHandler {
	return &AirplaneTypeHandler{Repo: r}
}

type airplaneTypeReq struct {
	Name string `json:"name" validate:"required,max=255"`
}

func presentAirplaneType(t model.AirplaneType, _ Projection) echo.Map {
	return echo.Map{"id": t.ID, "name": t.Name}
}

func (h *AirplaneTypeHandler) List(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "airplane type")
	}
	items, total, err := h.Repo.List(c.Request().Context(), page.window())
	if err != nil {
		return respondError(c, err, "airplane type")
	}
	out := make([]echo.Map, 0, len(items))
	for _, t := range items {
		out = append(out, presentAirplaneType(t, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *AirplaneTypeHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	t, err := h.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "airplane type")
	}
	return c.JSON(http.StatusOK, presentAirplaneType(t, projectionFor(ActionRetrieve)))
}

func (h *AirplaneTypeHandler) Create(c echo.Context) error {
	var req airplaneTypeReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "airplane type")
	}
	t := model.AirplaneType{Name: req.Name}
	if err := h.Repo.Create(c.Request().Context(), &t); err != nil {
		return respondError(c, err, "airplane type")
	}
	return c.JSON(http.StatusCreated, presentAirplaneType(t, projectionFor(ActionCreate)))
}

func (h *AirplaneTypeHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "airplane type")
	}
	var req airplaneTypeReq
	if c.Request().Method == http.MethodPatch {
		req.Name = cur.Name
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "airplane type")
	}
	t := model.AirplaneType{ID: id, Name: req.Name}
	if err := h.Repo.Update(ctx, t); err != nil {
		return respondError(c, err, "airplane type")
	}
	return c.JSON(http.StatusOK, presentAirplaneType(t, projectionFor(ActionUpdate)))
}

// Delete cascades to the airplanes of this type.
func (h *AirplaneTypeHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "airplane type")
	}
	return c.NoContent(http.StatusNoContent)
}
