package router

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airport-service/internal/media"
	"github.com/iliyamo/airport-service/internal/model"
)

var departure = time.Date(2024, 12, 10, 11, 0, 0, 0, time.UTC)

const ticketByID = "FROM tickets t JOIN orders o ON o.id = t.order_id"

func ticketRow(id, row, seat, flight, order, owner int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "row", "seat", "flight_id", "order_id", "user_id",
		"src", "dst", "departure_time", "arrival_time", "airplane"}).
		AddRow(id, row, seat, flight, order, owner, "Kyiv", "London", departure, departure.Add(3*time.Hour), "Mriya")
}

func orderOwner(owner int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id"}).AddRow(owner)
}

func TestTicketPatchOutsideGrid(t *testing.T) {
	api := newAPI(t)
	api.mock.ExpectQuery(regexp.QuoteMeta(ticketByID)).WithArgs(5).WillReturnRows(ticketRow(5, 1, 1, 3, 11, 7))
	api.mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE id = ?")).WithArgs(11).WillReturnRows(orderOwner(7))
	api.mock.ExpectQuery(regexp.QuoteMeta(seatingQuery)).WithArgs(3).WillReturnRows(seating(5, 8))

	rec := api.do(t, http.MethodPatch, "/v1/tickets/5", `{"row":9}`, bearer(t, 7, model.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":{"row":"row number must be in available range: (1, rows): (1, 5)"}}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestTicketCreateIntoForeignOrder(t *testing.T) {
	api := newAPI(t)
	api.mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE id = ?")).WithArgs(12).WillReturnRows(orderOwner(8))

	rec := api.do(t, http.MethodPost, "/v1/tickets", `{"row":1,"seat":1,"flight":3,"order":12}`, bearer(t, 7, model.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":{"order":"object does not exist"}}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestTicketPutMovesSeat(t *testing.T) {
	api := newAPI(t)
	api.mock.ExpectQuery(regexp.QuoteMeta(ticketByID)).WithArgs(5).WillReturnRows(ticketRow(5, 1, 1, 3, 11, 7))
	api.mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE id = ?")).WithArgs(11).WillReturnRows(orderOwner(7))
	api.mock.ExpectQuery(regexp.QuoteMeta(seatingQuery)).WithArgs(3).WillReturnRows(seating(5, 8))
	api.mock.ExpectBegin()
	api.mock.ExpectQuery(regexp.QuoteMeta(seatingQuery)).WithArgs(3).WillReturnRows(seating(5, 8))
	api.mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET `row` = ?, seat = ?, flight_id = ?, order_id = ? WHERE id = ?")).
		WithArgs(2, 3, 3, 11, 5).WillReturnResult(sqlmock.NewResult(0, 1))
	api.mock.ExpectCommit()

	rec := api.do(t, http.MethodPut, "/v1/tickets/5", `{"row":2,"seat":3,"flight":3,"order":11}`, bearer(t, 7, model.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":5,"row":2,"seat":3,"flight":3,"order":11}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestAirplaneUploadRejectsNonImage(t *testing.T) {
	api := newAPI(t)
	api.mock.ExpectQuery(regexp.QuoteMeta("FROM airplanes a JOIN airplane_types t ON t.id = a.airplane_type_id WHERE a.id = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rows", "seats_in_row", "airplane_type_id", "type", "image"}).
			AddRow(2, "Mriya", 10, 6, 1, "Cargo", nil))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "plane.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("definitely not a picture"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/airplanes/2/upload-image", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer(t, 1, model.RoleAdmin))
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":{"image":"`+media.ErrNotImage.Error()+`"}}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestFlightDetail(t *testing.T) {
	api := newAPI(t)
	api.mock.ExpectQuery(regexp.QuoteMeta("WHERE f.id = ? GROUP BY f.id")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "route_id", "airplane_id", "departure_time", "arrival_time",
			"src", "dst", "distance", "airplane", "rows", "seats_in_row", "tickets_available",
		}).AddRow(1, 2, 3, departure, departure.Add(8*time.Hour), "Kyiv", "London", 2100, "Mriya", 5, 8, 38))
	api.mock.ExpectQuery(regexp.QuoteMeta("FROM flight_crew fc JOIN crews c ON c.id = fc.crew_id")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"flight_id", "id", "first_name", "last_name"}).AddRow(1, 4, "Anna", "Bond"))
	api.mock.ExpectQuery(regexp.QuoteMeta("SELECT `row`, seat FROM tickets WHERE flight_id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"row", "seat"}).AddRow(1, 1).AddRow(1, 2))

	rec := api.do(t, http.MethodGet, "/v1/flights/1", "", bearer(t, 3, model.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id":1,"route_source":"Kyiv","route_destination":"London",
		"departure_time":"2024-12-10 11:00","arrival_time":"2024-12-10 19:00",
		"airplane":"Mriya","crew":["Anna Bond"],"tickets_available":38,
		"flight_duration_minutes":480,"distance":2100,"number_of_seats":40,
		"taken_places":[{"row":1,"seat":1},{"row":1,"seat":2}]
	}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestAirplaneGridBounds(t *testing.T) {
	api := newAPI(t)
	admin := bearer(t, 1, model.RoleAdmin)

	rec := api.do(t, http.MethodPost, "/v1/airplanes", `{"name":"Mriya","rows":61,"seats_in_row":4,"airplane_type":1}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":{"rows":"Ensure this value is less than or equal to 60."}}`, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/v1/airplanes", `{"name":"Mriya","rows":-2,"seats_in_row":11,"airplane_type":1}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","fields":{
		"rows":"Ensure this value is greater than or equal to 1.",
		"seats_in_row":"Ensure this value is less than or equal to 10."}}`, rec.Body.String())

	assert.NoError(t, api.mock.ExpectationsWereMet())
}
