package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/model"
)

// FlightRepo manages persistence for flights and their crew assignments.
// Every read computes tickets_available from the tickets table at query
// time; nothing about availability is stored.
type FlightRepo struct {
	db *sql.DB
}

func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

const flightSelect = "SELECT f.id, f.route_id, f.airplane_id, f.departure_time, f.arrival_time, " +
	"src.closest_big_city, dst.closest_big_city, r.distance, a.name, a.`rows`, a.seats_in_row, " +
	"CAST(a.`rows` * a.seats_in_row AS SIGNED) - COUNT(t.id) AS tickets_available " +
	"FROM flights f " +
	"JOIN routes r ON r.id = f.route_id " +
	"JOIN airports src ON src.id = r.source_id " +
	"JOIN airports dst ON dst.id = r.destination_id " +
	"JOIN airplanes a ON a.id = f.airplane_id " +
	"LEFT JOIN tickets t ON t.flight_id = f.id"

// flightCount counts the flights a filter matches; it joins only what the
// filter predicates reference.
const flightCount = "SELECT COUNT(DISTINCT f.id) FROM flights f " +
	"JOIN routes r ON r.id = f.route_id " +
	"JOIN airports src ON src.id = r.source_id " +
	"JOIN airports dst ON dst.id = r.destination_id"

// The GROUP BY both aggregates tickets and removes join duplicates.
const flightGroupBy = " GROUP BY f.id, f.route_id, f.airplane_id, f.departure_time, f.arrival_time, " +
	"src.closest_big_city, dst.closest_big_city, r.distance, a.name, a.`rows`, a.seats_in_row"

func scanFlight(s interface{ Scan(...any) error }) (model.FlightView, error) {
	var v model.FlightView
	err := s.Scan(&v.ID, &v.RouteID, &v.AirplaneID, &v.DepartureTime, &v.ArrivalTime,
		&v.RouteSource, &v.RouteDestination, &v.Distance, &v.AirplaneName, &v.Rows, &v.SeatsInRow,
		&v.TicketsAvailable)
	return v, err
}

// List returns flights matching f ordered by departure time.
func (r *FlightRepo) List(ctx context.Context, f FlightFilter, p Page) ([]model.FlightView, int, error) {
	spec := f.spec()
	total, err := count(ctx, r.db, flightCount+spec.clause(), spec.args...)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(flightSelect+spec.clause()+flightGroupBy+" ORDER BY f.departure_time, f.id", spec.args)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.FlightView{}
	for rows.Next() {
		v, err := scanFlight(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachCrew(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get returns one flight with crew and the list of sold places.
func (r *FlightRepo) Get(ctx context.Context, id uint64) (model.FlightView, error) {
	v, err := scanFlight(r.db.QueryRowContext(ctx, flightSelect+" WHERE f.id = ?"+flightGroupBy, id))
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	if err != nil {
		return v, err
	}
	views := []model.FlightView{v}
	if err := r.attachCrew(ctx, views); err != nil {
		return v, err
	}
	v = views[0]
	v.TakenPlaces, err = r.takenPlaces(ctx, id)
	return v, err
}

// attachCrew loads crew ids and names for all views with one query.
func (r *FlightRepo) attachCrew(ctx context.Context, views []model.FlightView) error {
	if len(views) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(views))
	args := make([]any, 0, len(views))
	for i := range views {
		index[views[i].ID] = i
		views[i].CrewIDs = []uint64{}
		views[i].Crew = []string{}
		args = append(args, views[i].ID)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT fc.flight_id, c.id, c.first_name, c.last_name
		FROM flight_crew fc JOIN crews c ON c.id = fc.crew_id
		WHERE fc.flight_id IN (`+placeholders(len(args))+`)
		ORDER BY c.first_name, c.id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			flightID uint64
			c        model.Crew
		)
		if err := rows.Scan(&flightID, &c.ID, &c.FirstName, &c.LastName); err != nil {
			return err
		}
		if i, ok := index[flightID]; ok {
			views[i].CrewIDs = append(views[i].CrewIDs, c.ID)
			views[i].Crew = append(views[i].Crew, c.FullName())
		}
	}
	return rows.Err()
}

func (r *FlightRepo) takenPlaces(ctx context.Context, flightID uint64) ([]model.Place, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT `row`, seat FROM tickets WHERE flight_id = ? ORDER BY `row`, seat", flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Place{}
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.Row, &p.Seat); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Seating returns the seat grid of the airplane assigned to the flight.
func (r *FlightRepo) Seating(ctx context.Context, flightID uint64) (booking.Seating, error) {
	return seatingOf(ctx, r.db, flightID)
}

func seatingOf(ctx context.Context, q querier, flightID uint64) (booking.Seating, error) {
	var s booking.Seating
	err := q.QueryRowContext(ctx,
		"SELECT a.`rows`, a.seats_in_row FROM flights f JOIN airplanes a ON a.id = f.airplane_id WHERE f.id = ?",
		flightID).Scan(&s.Rows, &s.SeatsInRow)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts the flight and its crew in one transaction.
func (r *FlightRepo) Create(ctx context.Context, f *model.Flight) error {
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
	if err := r.CreateTx(ctx, tx, f); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CreateTx inserts f on tx without committing.
func (r *FlightRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.Flight) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO flights (route_id, airplane_id, departure_time, arrival_time) VALUES (?, ?, ?, ?)`,
		f.RouteID, f.AirplaneID, f.DepartureTime.UTC(), f.ArrivalTime.UTC())
	if err != nil {
		return flightWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return insertCrew(ctx, tx, f)
}

// Update rewrites the flight row and replaces its crew.
func (r *FlightRepo) Update(ctx context.Context, f *model.Flight) error {
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
	if _, err := tx.ExecContext(ctx,
		`UPDATE flights SET route_id = ?, airplane_id = ?, departure_time = ?, arrival_time = ? WHERE id = ?`,
		f.RouteID, f.AirplaneID, f.DepartureTime.UTC(), f.ArrivalTime.UTC(), f.ID); err != nil {
		return flightWriteError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flight_crew WHERE flight_id = ?`, f.ID); err != nil {
		return err
	}
	if err := insertCrew(ctx, tx, f); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *FlightRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "flights", id)
}

// insertCrew writes flight_crew rows for the de-duplicated crew ids.
func insertCrew(ctx context.Context, tx *sql.Tx, f *model.Flight) error {
	seen := make(map[uint64]bool, len(f.CrewIDs))
	ids := make([]uint64, 0, len(f.CrewIDs))
	for _, id := range f.CrewIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	f.CrewIDs = ids
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, 0, len(ids))
	args := make([]any, 0, 2*len(ids))
	for _, id := range ids {
		values = append(values, "(?, ?)")
		args = append(args, f.ID, id)
	}
	q := fmt.Sprintf("INSERT INTO flight_crew (flight_id, crew_id) VALUES %s", strings.Join(values, ", "))
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return referenceError(err)
	}
	return nil
}

func flightWriteError(err error) error {
	if isDuplicate(err) {
		return uniqueTogether("route", "airplane", "departure_time", "arrival_time")
	}
	return referenceError(err)
}
