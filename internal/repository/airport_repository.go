package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/airport-service/internal/model"
)

// AirportRepo manages persistence for airports.
type AirportRepo struct {
	db *sql.DB
}

// NewAirportRepo returns an AirportRepo bound to db.
func NewAirportRepo(db *sql.DB) *AirportRepo { return &AirportRepo{db: db} }

// List returns airports matching f ordered by closest big city.
func (r *AirportRepo) List(ctx context.Context, f AirportFilter, p Page) ([]model.Airport, int, error) {
	spec := f.spec()
	total, err := count(ctx, r.db, `SELECT COUNT(DISTINCT a.id) FROM airports a`+spec.clause(), spec.args...)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(`SELECT DISTINCT a.id, a.name, a.closest_big_city FROM airports a`+spec.clause()+
		` ORDER BY a.closest_big_city, a.id`, spec.args)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Airport{}
	for rows.Next() {
		var a model.Airport
		if err := rows.Scan(&a.ID, &a.Name, &a.ClosestBigCity); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Get loads one airport.
func (r *AirportRepo) Get(ctx context.Context, id uint64) (model.Airport, error) {
	var a model.Airport
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, closest_big_city FROM airports WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.ClosestBigCity)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// Create inserts a and sets its ID.
func (r *AirportRepo) Create(ctx context.Context, a *model.Airport) error {
	return r.CreateTx(ctx, r.db, a)
}

// CreateTx is Create running on q, which may be a transaction.
func (r *AirportRepo) CreateTx(ctx context.Context, q querier, a *model.Airport) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO airports (name, closest_big_city) VALUES (?, ?)`, a.Name, a.ClosestBigCity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Update overwrites the stored fields of a.  Callers load the row first,
// so a missing id has already been reported as ErrNotFound.
func (r *AirportRepo) Update(ctx context.Context, a model.Airport) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE airports SET name = ?, closest_big_city = ? WHERE id = ?`,
		a.Name, a.ClosestBigCity, a.ID)
	return err
}

// Delete removes an airport and, through the foreign keys, its routes.
func (r *AirportRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "airports", id)
}
