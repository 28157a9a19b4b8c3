package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/airport-service/internal/model"
)

// AirplaneRepo manages persistence for airplanes.  Reads join the type
// name; capacity is derived by model.Airplane.
type AirplaneRepo struct {
	db *sql.DB
}

func NewAirplaneRepo(db *sql.DB) *AirplaneRepo { return &AirplaneRepo{db: db} }

const airplaneSelect = "SELECT a.id, a.name, a.`rows`, a.seats_in_row, a.airplane_type_id, t.name, a.image " +
	"FROM airplanes a JOIN airplane_types t ON t.id = a.airplane_type_id"

func scanAirplane(s interface{ Scan(...any) error }) (model.Airplane, error) {
	var (
		a     model.Airplane
		image sql.NullString
	)
	err := s.Scan(&a.ID, &a.Name, &a.Rows, &a.SeatsInRow, &a.AirplaneTypeID, &a.TypeName, &image)
	a.Image = image.String
	return a, err
}

// List returns airplanes ordered by name.
func (r *AirplaneRepo) List(ctx context.Context, p Page) ([]model.Airplane, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM airplanes`)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(airplaneSelect+` ORDER BY a.name, a.id`, nil)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Airplane{}
	for rows.Next() {
		a, err := scanAirplane(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *AirplaneRepo) Get(ctx context.Context, id uint64) (model.Airplane, error) {
	a, err := scanAirplane(r.db.QueryRowContext(ctx, airplaneSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (r *AirplaneRepo) Create(ctx context.Context, a *model.Airplane) error {
	return r.CreateTx(ctx, r.db, a)
}

// CreateTx inserts a on q.  The grid bounds are checked by the caller and
// again by the table's CHECK constraints.
func (r *AirplaneRepo) CreateTx(ctx context.Context, q querier, a *model.Airplane) error {
	res, err := q.ExecContext(ctx,
		"INSERT INTO airplanes (name, `rows`, seats_in_row, airplane_type_id) VALUES (?, ?, ?, ?)",
		a.Name, a.Rows, a.SeatsInRow, a.AirplaneTypeID)
	if err != nil {
		return referenceError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

func (r *AirplaneRepo) Update(ctx context.Context, a model.Airplane) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE airplanes SET name = ?, `rows` = ?, seats_in_row = ?, airplane_type_id = ? WHERE id = ?",
		a.Name, a.Rows, a.SeatsInRow, a.AirplaneTypeID, a.ID)
	return referenceError(err)
}

// SetImage stores the relative media path of the airplane's image.
func (r *AirplaneRepo) SetImage(ctx context.Context, id uint64, path string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE airplanes SET image = ? WHERE id = ?`, path, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if ok, err := exists(ctx, r.db, "airplanes", id); err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
	}
	return nil
}

func (r *AirplaneRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "airplanes", id)
}
