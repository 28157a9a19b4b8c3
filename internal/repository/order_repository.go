package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
)

// TicketSpec is one requested seat inside a new order.
type TicketSpec struct {
	Row      int
	Seat     int
	FlightID uint64
}

// OrderRepo manages orders.  All reads are scoped to the owning user.
type OrderRepo struct {
	db      *sql.DB
	tickets *TicketRepo
	now     func() time.Time
}

func NewOrderRepo(db *sql.DB, tickets *TicketRepo) *OrderRepo {
	return &OrderRepo{db: db, tickets: tickets, now: time.Now}
}

// Create inserts the order and all of its tickets in one transaction.  If
// any ticket is rejected (grid bounds, taken seat, unknown flight) nothing
// is written.  Ticket errors are keyed "tickets[i].field".
func (r *OrderRepo) Create(ctx context.Context, userID uint64, specs []TicketSpec) (model.Order, error) {
	order := model.Order{UserID: userID, CreatedAt: r.now().UTC().Truncate(time.Second)}
	if len(specs) == 0 {
		return order, booking.Field("tickets", "this list may not be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return order, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, created_at) VALUES (?, ?)`, userID, order.CreatedAt)
	if err != nil {
		return order, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return order, err
	}
	order.ID = uint64(id)

	order.Tickets = make([]model.Ticket, 0, len(specs))
	for i, s := range specs {
		t := model.Ticket{Row: s.Row, Seat: s.Seat, FlightID: s.FlightID, OrderID: order.ID}
		if err := r.tickets.InsertTx(ctx, tx, &t); err != nil {
			if fe, ok := booking.AsFieldErrors(err); ok {
				return model.Order{}, fe.Prefix(fmt.Sprintf("tickets[%d]", i))
			}
			return model.Order{}, err
		}
		order.Tickets = append(order.Tickets, t)
	}

	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	committed = true
	return order, nil
}

// List returns the user's orders, newest first, with their tickets.
func (r *OrderRepo) List(ctx context.Context, userID uint64, p Page) ([]model.Order, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(`SELECT id, user_id, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		[]any{userID})
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, 0, err
		}
		o.Tickets = []model.Ticket{}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachTickets(ctx, out)
}

// Get loads one of the user's orders.  Orders of other users are reported
// as ErrNotFound.
func (r *OrderRepo) Get(ctx context.Context, id, userID uint64) (model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&o.ID, &o.UserID, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	o.Tickets = []model.Ticket{}
	orders := []model.Order{o}
	if err := r.attachTickets(ctx, orders); err != nil {
		return o, err
	}
	return orders[0], nil
}

func (r *OrderRepo) attachTickets(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(orders))
	args := make([]any, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		args = append(args, o.ID)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, `row`, seat, flight_id, order_id FROM tickets WHERE order_id IN ("+
			placeholders(len(args))+") ORDER BY id", args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Row, &t.Seat, &t.FlightID, &t.OrderID); err != nil {
			return err
		}
		if i, ok := index[t.OrderID]; ok {
			orders[i].Tickets = append(orders[i].Tickets, t)
		}
	}
	return rows.Err()
}

// Delete removes one of the user's orders with its tickets.
func (r *OrderRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// OwnerOf returns the user that owns the order.
func (r *OrderRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var userID uint64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM orders WHERE id = ?`, id).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return userID, err
}
