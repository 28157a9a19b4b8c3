package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

// CrewHandler serves /v1/crews.
type CrewHandler struct {
	Repo *repository.CrewRepo
}

func NewCrewHandler(r *repository.CrewRepo) *CrewHandler { return &CrewHandler{Repo: r} }

type crewReq struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
}

func presentCrew(cr model.Crew, p Projection) echo.Map {
	out := echo.Map{"id": cr.ID, "first_name": cr.FirstName, "last_name": cr.LastName}
	if p != ProjectionWrite {
		out["full_name"] = cr.FullName()
	}
	return out
}

func (h *CrewHandler) List(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "crew")
	}
	items, total, err := h.Repo.List(c.Request().Context(), page.window())
	if err != nil {
		return respondError(c, err, "crew")
	}
	out := make([]echo.Map, 0, len(items))
	for _, cr := range items {
		out = append(out, presentCrew(cr, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *CrewHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	cr, err := h.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "crew")
	}
	return c.JSON(http.StatusOK, presentCrew(cr, projectionFor(ActionRetrieve)))
}

func (h *CrewHandler) Create(c echo.Context) error {
	var req crewReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "crew")
	}
	cr := model.Crew{FirstName: req.FirstName, LastName: req.LastName}
	if err := h.Repo.Create(c.Request().Context(), &cr); err != nil {
		return respondError(c, err, "crew")
	}
	return c.JSON(http.StatusCreated, presentCrew(cr, projectionFor(ActionCreate)))
}

// Update serves PUT and PATCH.  PATCH starts from the stored record so
// omitted fields keep their value.
func (h *CrewHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "crew")
	}
	var req crewReq
	if c.Request().Method == http.MethodPatch {
		req = crewReq{FirstName: cur.FirstName, LastName: cur.LastName}
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "crew")
	}
	cr := model.Crew{ID: id, FirstName: req.FirstName, LastName: req.LastName}
	if err := h.Repo.Update(ctx, cr); err != nil {
		return respondError(c, err, "crew")
	}
	return c.JSON(http.StatusOK, presentCrew(cr, projectionFor(ActionUpdate)))
}

func (h *CrewHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "crew")
	}
	return c.NoContent(http.StatusNoContent)
}
