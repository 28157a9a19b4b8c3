package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/airport-service/internal/model"
)

// CrewRepo manages persistence for crew members.
type CrewRepo struct {
	db *sql.DB
}

func NewCrewRepo(db *sql.DB) *CrewRepo { return &CrewRepo{db: db} }

// List returns all crew ordered by first name.
func (r *CrewRepo) List(ctx context.Context, p Page) ([]model.Crew, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM crews`)
	if err != nil {
		return nil, 0, err
	}
	q, args := p.apply(`SELECT id, first_name, last_name FROM crews ORDER BY first_name, id`, nil)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Crew{}
	for rows.Next() {
		var c model.Crew
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *CrewRepo) Get(ctx context.Context, id uint64) (model.Crew, error) {
	var c model.Crew
	err := r.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name FROM crews WHERE id = ?`, id,
	).Scan(&c.ID, &c.FirstName, &c.LastName)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r *CrewRepo) Create(ctx context.Context, c *model.Crew) error {
	return r.CreateTx(ctx, r.db, c)
}

func (r *CrewRepo) CreateTx(ctx context.Context, q querier, c *model.Crew) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO crews (first_name, last_name) VALUES (?, ?)`, c.FirstName, c.LastName)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *CrewRepo) Update(ctx context.Context, c model.Crew) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE crews SET first_name = ?, last_name = ? WHERE id = ?`, c.FirstName, c.LastName, c.ID)
	return err
}

func (r *CrewRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "crews", id)
}
