package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/airport-service/internal/model"
)

// AirplaneTypeRepo manages persistence for airplane types.
type AirplaneTypeRepo struct {
	db *sql.DB
}

func NewAirplaneTypeRepo(db *sql.DB) *AirplaneTypeRepo { return &AirplaneTypeRepo{db: db} }

func (r *AirplaneTypeRepo) List(ctx context.Context, p Page) ([]model.AirplaneType, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM airplane_types`)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(`SELECT id, name FROM airplane_types ORDER BY name, id`, nil)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.AirplaneType{}
	for rows.Next() {
		var t model.AirplaneType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *AirplaneTypeRepo) Get(ctx context.Context, id uint64) (model.AirplaneType, error) {
	var t model.AirplaneType
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM airplane_types WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r *AirplaneTypeRepo) Create(ctx context.Context, t *model.AirplaneType) error {
	return r.CreateTx(ctx, r.db, t)
}

// CreateTx inserts t using q, which may be a transaction.
func (r *AirplaneTypeRepo) CreateTx(ctx context.Context, q querier, t *model.AirplaneType) error {
	res, err := q.ExecContext(ctx, `INSERT INTO airplane_types (name) VALUES (?)`, t.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *AirplaneTypeRepo) Update(ctx context.Context, t model.AirplaneType) error {
	_, err := r.db.ExecContext(ctx, `UPDATE airplane_types SET name = ? WHERE id = ?`, t.Name, t.ID)
	return err
}

// Delete removes the type together with its airplanes.
func (r *AirplaneTypeRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "airplane_types", id)
}
