package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/utils"
)

// ErrEmailExists is returned by Create when the email is already taken.
var ErrEmailExists = errors.New("email already exists")

// NewUser carries the registration fields.
type NewUser struct {
	Email          string
	Password       string
	Role           string
	PassportNumber string
	DateOfBirth    *time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, role, passport_number, date_of_birth, is_active, created_at, updated_at"

func scanUser(s interface{ Scan(...any) error }) (model.User, error) {
	var (
		u   model.User
		dob sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.PassportNumber, &dob,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if dob.Valid {
		t := dob.Time
		u.DateOfBirth = &t
	}
	return u, err
}

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(nu.Email))
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	var dob any
	if nu.DateOfBirth != nil {
		dob = nu.DateOfBirth.Format("2006-01-02")
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, passport_number, date_of_birth) VALUES (?,?,?,?,?)",
		email, hash, nu.Role, nu.PassportNumber, dob)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// EnsureAdmin creates the account with the ADMIN role, or promotes and
// re-passwords it when the email already exists.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string, cost int) error {
	_, err := r.Create(ctx, NewUser{Email: email, Password: password, Role: model.RoleAdmin}, cost)
	if err == nil || !errors.Is(err, ErrEmailExists) {
		return err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, password_hash=?, is_active=1 WHERE email=?",
		model.RoleAdmin, hash, strings.ToLower(strings.TrimSpace(email)))
	return err
}
