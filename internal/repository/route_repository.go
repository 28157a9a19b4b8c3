package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/airport-service/internal/model"
)

// RouteRepo manages persistence for routes.  Reads always join both
// airports so list and detail responses need no extra queries.
type RouteRepo struct {
	db *sql.DB
}

func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

const routeSelect = `SELECT r.id, r.source_id, r.destination_id, r.distance,
	src.closest_big_city, src.name, dst.closest_big_city, dst.name
	FROM routes r
	JOIN airports src ON src.id = r.source_id
	JOIN airports dst ON dst.id = r.destination_id`

func scanRoute(s interface{ Scan(...any) error }) (model.RouteView, error) {
	var v model.RouteView
	err := s.Scan(&v.ID, &v.SourceID, &v.DestinationID, &v.Distance,
		&v.SourceCity, &v.SourceAirport, &v.DestinationCity, &v.DestinationAirport)
	return v, err
}

// List returns routes ordered by source, destination and distance.
func (r *RouteRepo) List(ctx context.Context, p Page) ([]model.RouteView, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM routes`)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(routeSelect+` ORDER BY src.closest_big_city, dst.closest_big_city, r.distance, r.id`, nil)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.RouteView{}
	for rows.Next() {
		v, err := scanRoute(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *RouteRepo) Get(ctx context.Context, id uint64) (model.RouteView, error) {
	v, err := scanRoute(r.db.QueryRowContext(ctx, routeSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	return v, err
}

// Create inserts rt.  Unknown airports come back as field errors on
// "source" or "destination".
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
	return r.CreateTx(ctx, r.db, rt)
}

func (r *RouteRepo) CreateTx(ctx context.Context, q querier, rt *model.Route) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO routes (source_id, destination_id, distance) VALUES (?, ?, ?)`,
		rt.SourceID, rt.DestinationID, rt.Distance)
	if err != nil {
		return referenceError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

func (r *RouteRepo) Update(ctx context.Context, rt model.Route) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE routes SET source_id = ?, destination_id = ?, distance = ? WHERE id = ?`,
		rt.SourceID, rt.DestinationID, rt.Distance, rt.ID)
	return referenceError(err)
}

func (r *RouteRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "routes", id)
}
