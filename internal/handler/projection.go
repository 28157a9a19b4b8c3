package handler

import (
	"strings"
	"time"
)

// Action is the operation a request performs on a resource.
type Action int

const (
	ActionCreate Action = iota
	ActionList
	ActionRetrieve
	ActionUpdate
	ActionUploadImage
)

// Projection selects the response shape of a resource.
type Projection int

const (
	ProjectionWrite Projection = iota
	ProjectionList
	ProjectionDetail
	ProjectionImage
)

// projectionFor is the single place that decides which representation an
// action returns.  Writes echo back ids, reads expand related objects.
func projectionFor(a Action) Projection {
	switch a {
	case ActionList:
		return ProjectionList
	case ActionRetrieve:
		return ProjectionDetail
	case ActionUploadImage:
		return ProjectionImage
	default:
		return ProjectionWrite
	}
}

// DatetimeLayout is how flight times are rendered.
const DatetimeLayout = "2006-01-02 15:04"

const datetimeSecondsLayout = "2006-01-02 15:04:05"

var datetimeInputs = []string{DatetimeLayout, datetimeSecondsLayout, time.RFC3339}

func formatDatetime(t time.Time) string { return t.UTC().Format(DatetimeLayout) }

const datetimeFormatMsg = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DD hh:mm[:ss], RFC3339."

// parseDatetime accepts DatetimeLayout, the same with seconds, or RFC3339.
// Times without a zone are taken as UTC.
func parseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
