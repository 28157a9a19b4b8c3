package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/media"
	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

// AirplaneHandler serves /v1/airplanes and the image upload action.
type AirplaneHandler struct {
	Repo  *repository.AirplaneRepo
	Media *media.Store
}

func NewAirplaneHandler(r *repository.AirplaneRepo, m *media.Store) *AirplaneHandler {
	return &AirplaneHandler{Repo: r, Media: m}
}

type airplaneReq struct {
	Name         string `json:"name" validate:"required,max=255"`
	Rows         int    `json:"rows" validate:"required"`
	SeatsInRow   int    `json:"seats_in_row" validate:"required"`
	AirplaneType uint64 `json:"airplane_type" validate:"required"`
}

func (h *AirplaneHandler) present(a model.Airplane, p Projection) echo.Map {
	if p == ProjectionImage {
		return echo.Map{"id": a.ID, "image": h.Media.URL(a.Image)}
	}
	return echo.Map{
		"id":                 a.ID,
		"name":               a.Name,
		"rows":               a.Rows,
		"seats_in_row":       a.SeatsInRow,
		"airplane_type_name": a.TypeName,
		"image":              h.Media.URL(a.Image),
		"capacity":           a.Capacity(),
	}
}

func (h *AirplaneHandler) List(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err, "airplane")
	}
	items, total, err := h.Repo.List(c.Request().Context(), page.window())
	if err != nil {
		return respondError(c, err, "airplane")
	}
	out := make([]echo.Map, 0, len(items))
	for _, a := range items {
		out = append(out, h.present(a, projectionFor(ActionList)))
	}
	return respondPage(c, page, total, out)
}

func (h *AirplaneHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	a, err := h.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "airplane")
	}
	return c.JSON(http.StatusOK, h.present(a, projectionFor(ActionRetrieve)))
}

func (h *AirplaneHandler) Create(c echo.Context) error {
	var req airplaneReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "airplane")
	}
	ctx := c.Request().Context()
	a := model.Airplane{Name: req.Name, Rows: req.Rows, SeatsInRow: req.SeatsInRow, AirplaneTypeID: req.AirplaneType}
	if err := a.ValidateGrid(); err != nil {
		return respondError(c, err, "airplane")
	}
	if err := h.Repo.Create(ctx, &a); err != nil {
		return respondError(c, err, "airplane")
	}
	// re-read for the type name
	saved, err := h.Repo.Get(ctx, a.ID)
	if err != nil {
		return respondError(c, err, "airplane")
	}
	return c.JSON(http.StatusCreated, h.present(saved, projectionFor(ActionCreate)))
}

func (h *AirplaneHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	cur, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "airplane")
	}
	var req airplaneReq
	if c.Request().Method == http.MethodPatch {
		req = airplaneReq{Name: cur.Name, Rows: cur.Rows, SeatsInRow: cur.SeatsInRow, AirplaneType: cur.AirplaneTypeID}
	}
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err, "airplane")
	}
	a := model.Airplane{ID: id, Name: req.Name, Rows: req.Rows, SeatsInRow: req.SeatsInRow, AirplaneTypeID: req.AirplaneType}
	if err := a.ValidateGrid(); err != nil {
		return respondError(c, err, "airplane")
	}
	if err := h.Repo.Update(ctx, a); err != nil {
		return respondError(c, err, "airplane")
	}
	saved, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "airplane")
	}
	return c.JSON(http.StatusOK, h.present(saved, projectionFor(ActionUpdate)))
}

func (h *AirplaneHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	a, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "airplane")
	}
	if err := h.Repo.Delete(ctx, id); err != nil {
		return respondError(c, err, "airplane")
	}
	if err := h.Media.Remove(a.Image); err != nil {
		log.Printf("[MEDIA] remove %s: %v", a.Image, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /v1/airplanes/:id/upload-image with a multipart
// "image" field.  Anything that does not sniff as an image is rejected.
func (h *AirplaneHandler) UploadImage(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c)
	}
	ctx := c.Request().Context()
	a, err := h.Repo.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "airplane")
	}

	// leave room for the multipart envelope around the file itself
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.Media.MaxBytes+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fieldErrors(c, booking.Field("image", media.ErrTooLarge.Error()))
		}
		return fieldErrors(c, booking.Field("image", "No file was submitted."))
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err, "airplane")
	}
	defer f.Close()

	rel, err := h.Media.SaveAirplaneImage(a.Name, f)
	switch {
	case errors.Is(err, media.ErrNotImage), errors.Is(err, media.ErrTooLarge), errors.Is(err, media.ErrEmpty):
		return fieldErrors(c, booking.Field("image", err.Error()))
	case err != nil:
		return respondError(c, err, "airplane")
	}
	if err := h.Repo.SetImage(ctx, id, rel); err != nil {
		_ = h.Media.Remove(rel)
		return respondError(c, err, "airplane")
	}
	if err := h.Media.Remove(a.Image); err != nil {
		log.Printf("[MEDIA] remove %s: %v", a.Image, err)
	}
	a.Image = rel
	return c.JSON(http.StatusOK, h.present(a, projectionFor(ActionUploadImage)))
}
