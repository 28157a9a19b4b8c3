package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
)

// TicketRepo manages persistence for tickets.  Every insert and update goes
// through checkTx, which re-reads the flight's seat grid inside the
// transaction and runs booking.ValidateTicket, whatever the entry point.
// The (flight, row, seat) unique key settles concurrent buyers.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// checkTx validates t against the airplane of its flight.
func (r *TicketRepo) checkTx(ctx context.Context, q querier, t model.Ticket) error {
	s, err := seatingOf(ctx, q, t.FlightID)
	if err == ErrNotFound {
		return booking.Field("flight", "object does not exist")
	}
	if err != nil {
		return err
	}
	return booking.ValidateTicket(t.Row, t.Seat, s)
}

func ticketWriteError(err error) error {
	if isDuplicate(err) {
		return uniqueTogether("flight", "row", "seat")
	}
	return referenceError(err)
}

// InsertTx validates and inserts t on tx.  It is the only insert path for
// tickets.
func (r *TicketRepo) InsertTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	if err := r.checkTx(ctx, tx, *t); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (`row`, seat, flight_id, order_id) VALUES (?, ?, ?, ?)",
		t.Row, t.Seat, t.FlightID, t.OrderID)
	if err != nil {
		return ticketWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// UpdateTx validates and rewrites t on tx.  A ticket deleted meanwhile is
// ErrNotFound; MySQL reports 0 affected rows for an unchanged row too, so
// that case is told apart with exists.
func (r *TicketRepo) UpdateTx(ctx context.Context, tx *sql.Tx, t model.Ticket) error {
	if err := r.checkTx(ctx, tx, t); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE tickets SET `row` = ?, seat = ?, flight_id = ?, order_id = ? WHERE id = ?",
		t.Row, t.Seat, t.FlightID, t.OrderID, t.ID)
	if err != nil {
		return ticketWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		ok, err := exists(ctx, tx, "tickets", t.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}
	return nil
}

// Create adds a single ticket to an existing order.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	return r.inTx(ctx, func(tx *sql.Tx) error { return r.InsertTx(ctx, tx, t) })
}

// Update rewrites a single ticket.
func (r *TicketRepo) Update(ctx context.Context, t model.Ticket) error {
	return r.inTx(ctx, func(tx *sql.Tx) error { return r.UpdateTx(ctx, tx, t) })
}

func (r *TicketRepo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const ticketSelect = "SELECT DISTINCT t.id, t.`row`, t.seat, t.flight_id, t.order_id, o.user_id, " +
	"src.closest_big_city, dst.closest_big_city, f.departure_time, f.arrival_time, a.name " +
	"FROM tickets t " +
	"JOIN orders o ON o.id = t.order_id " +
	"JOIN flights f ON f.id = t.flight_id " +
	"JOIN routes r ON r.id = f.route_id " +
	"JOIN airports src ON src.id = r.source_id " +
	"JOIN airports dst ON dst.id = r.destination_id " +
	"JOIN airplanes a ON a.id = f.airplane_id"

func scanTicket(s interface{ Scan(...any) error }) (model.TicketView, error) {
	var v model.TicketView
	err := s.Scan(&v.ID, &v.Row, &v.Seat, &v.FlightID, &v.OrderID, &v.OwnerID,
		&v.RouteSource, &v.RouteDestination, &v.DepartureTime, &v.ArrivalTime, &v.AirplaneName)
	return v, err
}

// List returns tickets matching f.
func (r *TicketRepo) List(ctx context.Context, f TicketFilter, p Page) ([]model.TicketView, int, error) {
	spec := f.spec()
	total, err := count(ctx, r.db,
		"SELECT COUNT(DISTINCT t.id) FROM tickets t JOIN orders o ON o.id = t.order_id"+spec.clause(), spec.args...)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(ticketSelect+spec.clause()+" ORDER BY t.id", spec.args)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.TicketView{}
	for rows.Next() {
		v, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// Get loads one ticket; OwnerID on the result lets callers enforce
// ownership.
func (r *TicketRepo) Get(ctx context.Context, id uint64) (model.TicketView, error) {
	v, err := scanTicket(r.db.QueryRowContext(ctx, ticketSelect+" WHERE t.id = ?", id))
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	return v, err
}

// Document loads a ticket with the passenger details printed on the
// e-ticket.
func (r *TicketRepo) Document(ctx context.Context, id uint64) (model.TicketDocument, error) {
	var d model.TicketDocument
	v, err := r.Get(ctx, id)
	if err != nil {
		return d, err
	}
	d.TicketView = v
	err = r.db.QueryRowContext(ctx,
		`SELECT email, passport_number FROM users WHERE id = ?`, v.OwnerID,
	).Scan(&d.PassengerEmail, &d.PassportNumber)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "tickets", id)
}
