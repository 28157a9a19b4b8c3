package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/repository"
)

// Page sizes for list endpoints.  Clients pick a size with ?page_size=,
// capped at MaxPageSize.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// pageRequest is the validated ?page= and ?page_size= pair.
type pageRequest struct {
	Number int
	Size   int
}

func (p pageRequest) window() repository.Page {
	return repository.Page{Limit: p.Size, Offset: (p.Number - 1) * p.Size}
}

// parsePage reads the pagination parameters.  Missing values fall back
// to page 1 and DefaultPageSize.
func parsePage(c echo.Context) (pageRequest, error) {
	p := pageRequest{Number: 1, Size: DefaultPageSize}
	errs := booking.FieldErrors{}
	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs["page"] = "A valid integer is required."
		} else {
			p.Number = n
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("page_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs["page_size"] = "A valid integer is required."
		} else if n > MaxPageSize {
			p.Size = MaxPageSize
		} else {
			p.Size = n
		}
	}
	return p, errs.OrNil()
}

// pageLink is the absolute URL of page n of the current listing, keeping
// every other query parameter.  Page 1 drops the parameter.
func pageLink(c echo.Context, n int) string {
	u := *c.Request().URL
	q := u.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	u.Scheme = c.Scheme()
	u.Host = c.Request().Host
	return u.String()
}

// respondPage writes the {count, next, previous, results} envelope.  A
// page past the end is a 404, except page 1 of an empty listing.
func respondPage(c echo.Context, p pageRequest, total int, results []echo.Map) error {
	if p.Number > 1 && (p.Number-1)*p.Size >= total {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid page"})
	}
	var next, previous any
	if p.Number*p.Size < total {
		next = pageLink(c, p.Number+1)
	}
	if p.Number > 1 {
		previous = pageLink(c, p.Number-1)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":    total,
		"next":     next,
		"previous": previous,
		"results":  results,
	})
}
