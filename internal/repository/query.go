package repository

import (
	"context"
	"database/sql"
	"strings"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same statement
// helpers can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querySpec is an immutable list of ANDed predicates.  Filters build one
// from already-parsed parameters; repositories only render it.
type querySpec struct {
	where []string
	args  []any
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains adds a case-insensitive substring match.  Empty values add
// nothing.
func (q querySpec) contains(expr, value string) querySpec {
	value = strings.TrimSpace(value)
	if value == "" {
		return q
	}
	return q.with("LOWER("+expr+") LIKE ?", "%"+likeEscaper.Replace(strings.ToLower(value))+"%")
}

// equals adds expr = value.  Zero ids add nothing.
func (q querySpec) equals(expr string, value uint64) querySpec {
	if value == 0 {
		return q
	}
	return q.with(expr+" = ?", value)
}

func (q querySpec) with(cond string, arg any) querySpec {
	return querySpec{
		where: append(append([]string(nil), q.where...), cond),
		args:  append(append([]any(nil), q.args...), arg),
	}
}

// clause renders " WHERE a AND b" or an empty string.
func (q querySpec) clause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// AirportFilter narrows GET /v1/airports.
type AirportFilter struct {
	ClosestBigCity string
}

func (f AirportFilter) spec() querySpec {
	return querySpec{}.contains("a.closest_big_city", f.ClosestBigCity)
}

// FlightFilter narrows GET /v1/flights.  DepartureTime is matched against
// the "YYYY-MM-DD HH:MM:SS" rendering of the column, so "2024-10" or
// "11:00" both work.
type FlightFilter struct {
	DepartureTime    string
	RouteSource      string
	RouteDestination string
}

func (f FlightFilter) spec() querySpec {
	return querySpec{}.
		contains("DATE_FORMAT(f.departure_time, '%Y-%m-%d %H:%i:%s')", f.DepartureTime).
		contains("src.closest_big_city", f.RouteSource).
		contains("dst.closest_big_city", f.RouteDestination)
}

// TicketFilter narrows GET /v1/tickets.  OwnerID restricts to tickets in
// orders of that user; zero means every user (admins).
type TicketFilter struct {
	OrderID uint64
	OwnerID uint64
}

func (f TicketFilter) spec() querySpec {
	return querySpec{}.
		equals("t.order_id", f.OrderID).
		equals("o.user_id", f.OwnerID)
}

// Page is one LIMIT/OFFSET window of a listing.  A zero Limit returns
// every row.
type Page struct {
	Limit  int
	Offset int
}

// apply appends the LIMIT clause to query.
func (p Page) apply(query string, args []any) (string, []any) {
	if p.Limit <= 0 {
		return query, args
	}
	return query + " LIMIT ? OFFSET ?", append(append([]any(nil), args...), p.Limit, p.Offset)
}

// count runs a COUNT query and returns its single value.
func count(ctx context.Context, q querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
func deleteByID(ctx context.Context, q querier, table string, id uint64) error {
	res, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
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

// exists reports whether a row with id is present in table.
func exists(ctx context.Context, q querier, table string, id uint64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
