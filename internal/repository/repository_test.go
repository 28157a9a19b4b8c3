package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var (
	seatingQuery = regexp.QuoteMeta("SELECT a.`rows`, a.seats_in_row FROM flights f JOIN airplanes a")
	insertTicket = regexp.QuoteMeta("INSERT INTO tickets")
	insertOrder  = regexp.QuoteMeta("INSERT INTO orders")
)

func seating(rows, seats int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"rows", "seats_in_row"}).AddRow(rows, seats)
}

func TestAirportRepo_ListFiltersByCity(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(DISTINCT a.id) FROM airports a WHERE LOWER(a.closest_big_city) LIKE ?")).
		WithArgs("%kyiv%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT a.id, a.name, a.closest_big_city FROM airports a WHERE LOWER(a.closest_big_city) LIKE ? ORDER BY a.closest_big_city, a.id LIMIT ? OFFSET ?")).
		WithArgs("%kyiv%", 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "closest_big_city"}).
			AddRow(1, "Boryspil", "Kyiv"))

	got, total, err := NewAirportRepo(db).List(context.Background(), AirportFilter{ClosestBigCity: "KYIV"}, Page{Limit: 1, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []model.Airport{{ID: 1, Name: "Boryspil", ClosestBigCity: "Kyiv"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAirportRepo_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT id, name, closest_big_city FROM airports").
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := NewAirportRepo(db).Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM crews WHERE id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewCrewRepo(db).Delete(context.Background(), 4), ErrNotFound)
}

func TestRouteRepo_CreateUnknownAirport(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO routes")).
		WithArgs(1, 99, 300).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails (`airport`.`routes`, CONSTRAINT `fk_routes_destination` FOREIGN KEY (`destination_id`) REFERENCES `airports` (`id`))"})

	err := NewRouteRepo(db).Create(context.Background(), &model.Route{SourceID: 1, DestinationID: 99, Distance: 300})
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, booking.FieldErrors{"destination": "object does not exist"}, fe)
}

func TestFlightRepo_ListComputesAvailabilityAndCrew(t *testing.T) {
	db, mock := newMock(t)
	dep := time.Date(2024, 12, 10, 11, 0, 0, 0, time.UTC)
	arr := dep.Add(8 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT f.id) FROM flights f")).
		WithArgs("%test%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN tickets t ON t.flight_id = f.id WHERE LOWER(src.closest_big_city) LIKE ? GROUP BY f.id")).
		WithArgs("%test%").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "route_id", "airplane_id", "departure_time", "arrival_time",
			"src", "dst", "distance", "airplane", "rows", "seats_in_row", "tickets_available",
		}).AddRow(1, 2, 3, dep, arr, "Test City", "Other City", 100, "Test Airplane", 5, 8, 38))
	mock.ExpectQuery(regexp.QuoteMeta("FROM flight_crew fc JOIN crews c ON c.id = fc.crew_id")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"flight_id", "id", "first_name", "last_name"}).
			AddRow(1, 8, "Another", "Crew Member").
			AddRow(1, 7, "Test", "Pilot"))

	got, total, err := NewFlightRepo(db).List(context.Background(), FlightFilter{RouteSource: "Test"}, Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	f := got[0]
	assert.Equal(t, 38, f.TicketsAvailable)
	assert.Equal(t, 40, f.NumberOfSeats())
	assert.Equal(t, 480, f.DurationMinutes())
	assert.Equal(t, []string{"Another Crew Member", "Test Pilot"}, f.Crew)
	assert.Equal(t, []uint64{8, 7}, f.CrewIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightRepo_CreateDuplicateSlot(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flights")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_flight_slot'"})
	mock.ExpectRollback()

	now := time.Now()
	err := NewFlightRepo(db).Create(context.Background(), &model.Flight{RouteID: 1, AirplaneID: 1, DepartureTime: now, ArrivalTime: now.Add(time.Hour)})
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "The fields route, airplane, departure_time, arrival_time must make a unique set.", fe[booking.NonFieldKey])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlightRepo_CreateWithCrew(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flights")).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flight_crew (flight_id, crew_id) VALUES (?, ?), (?, ?)")).
		WithArgs(5, 1, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	now := time.Now()
	f := &model.Flight{RouteID: 1, AirplaneID: 1, DepartureTime: now, ArrivalTime: now.Add(time.Hour), CrewIDs: []uint64{1, 2, 1}}
	require.NoError(t, NewFlightRepo(db).Create(context.Background(), f))
	assert.Equal(t, uint64(5), f.ID)
	assert.Equal(t, []uint64{1, 2}, f.CrewIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_CreateRejectsSeatOutsideGrid(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectRollback()

	err := NewTicketRepo(db).Create(context.Background(), &model.Ticket{Row: 6, Seat: 1, FlightID: 3, OrderID: 1})
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "row number must be in available range: (1, rows): (1, 5)", fe["row"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_CreateUnknownFlight(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(seatingQuery).WithArgs(42).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewTicketRepo(db).Create(context.Background(), &model.Ticket{Row: 1, Seat: 1, FlightID: 42, OrderID: 1})
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, booking.FieldErrors{"flight": "object does not exist"}, fe)
}

func TestTicketRepo_UpdateMissingTicket(t *testing.T) {
	updateTicket := regexp.QuoteMeta("UPDATE tickets SET `row` = ?, seat = ?, flight_id = ?, order_id = ? WHERE id = ?")
	ticketExists := regexp.QuoteMeta("SELECT 1 FROM tickets WHERE id = ? LIMIT 1")

	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectExec(updateTicket).WithArgs(2, 2, 3, 1, 77).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(ticketExists).WithArgs(77).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewTicketRepo(db).Update(context.Background(), model.Ticket{ID: 77, Row: 2, Seat: 2, FlightID: 3, OrderID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())

	// an unchanged row also reports 0 affected rows
	db, mock = newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectExec(updateTicket).WithArgs(2, 2, 3, 1, 78).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(ticketExists).WithArgs(78).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, NewTicketRepo(db).Update(context.Background(), model.Ticket{ID: 78, Row: 2, Seat: 2, FlightID: 3, OrderID: 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepo_DuplicateSeatIsFieldError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectExec(insertTicket).
		WithArgs(5, 8, 3, 1).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-5-8' for key 'uq_ticket_seat'"})
	mock.ExpectRollback()

	err := NewTicketRepo(db).Create(context.Background(), &model.Ticket{Row: 5, Seat: 8, FlightID: 3, OrderID: 1})
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "The fields flight, row, seat must make a unique set.", fe[booking.NonFieldKey])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_CreateCommitsAllTickets(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2024, 12, 1, 9, 30, 15, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(insertOrder).WithArgs(7, created).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectExec(insertTicket).WithArgs(1, 1, 3, 10).WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectExec(insertTicket).WithArgs(5, 8, 3, 10).WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectCommit()

	repo := NewOrderRepo(db, NewTicketRepo(db))
	repo.now = func() time.Time { return created.Add(300 * time.Millisecond) }

	order, err := repo.Create(context.Background(), 7, []TicketSpec{
		{Row: 1, Seat: 1, FlightID: 3},
		{Row: 5, Seat: 8, FlightID: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), order.ID)
	assert.Equal(t, created, order.CreatedAt)
	require.Len(t, order.Tickets, 2)
	assert.Equal(t, uint64(101), order.Tickets[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_CreateRollsBackOnInvalidTicket(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertOrder).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectExec(insertTicket).WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectQuery(seatingQuery).WithArgs(3).WillReturnRows(seating(5, 8))
	mock.ExpectRollback()

	order, err := NewOrderRepo(db, NewTicketRepo(db)).Create(context.Background(), 7, []TicketSpec{
		{Row: 1, Seat: 1, FlightID: 3},
		{Row: 6, Seat: 9, FlightID: 3},
	})
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Len(t, fe, 2)
	assert.Contains(t, fe, "tickets[1].row")
	assert.Contains(t, fe, "tickets[1].seat")
	assert.Zero(t, order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_CreateRequiresTickets(t *testing.T) {
	db, mock := newMock(t)

	_, err := NewOrderRepo(db, NewTicketRepo(db)).Create(context.Background(), 7, nil)
	fe, ok := booking.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, booking.FieldErrors{"tickets": "this list may not be empty"}, fe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetScopedToOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, created_at FROM orders WHERE id = ? AND user_id = ?")).
		WithArgs(10, 8).
		WillReturnError(sql.ErrNoRows)

	_, err := NewOrderRepo(db, NewTicketRepo(db)).Get(context.Background(), 10, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepo_ListAttachesTickets(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2024, 12, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE user_id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
		WithArgs(7, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at"}).
			AddRow(11, 7, created).
			AddRow(10, 7, created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE order_id IN (?, ?)")).
		WithArgs(11, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "row", "seat", "flight_id", "order_id"}).
			AddRow(100, 1, 1, 3, 10).
			AddRow(101, 1, 2, 3, 10))

	orders, total, err := NewOrderRepo(db, NewTicketRepo(db)).List(context.Background(), 7, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)
	assert.Empty(t, orders[0].Tickets)
	assert.Len(t, orders[1].Tickets, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("a@b.c", sqlmock.AnyArg(), model.RoleCustomer, "", nil).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), NewUser{Email: " A@B.c ", Password: "password1", Role: model.RoleCustomer}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestTokenRepo_RotateLostRace(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=?")).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewTokenRepo(db).Rotate(context.Background(), 1, "old", "new", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
