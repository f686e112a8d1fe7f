package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"tasktracker/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and fills in the generated ID.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (username, password)
        VALUES ($1, $2)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, u.Username, u.PasswordHash).Scan(&u.ID)
}

// FindByUsername returns the user with the given username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
        SELECT id, username, password, role
        FROM users
        WHERE username = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

// FindByID returns the user with the given ID.
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, username, password, role
        FROM users
        WHERE id = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int, role model.Role) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	return err
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id int, username string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET username = $1 WHERE id = $2`, username, id)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanOne(row rowScanner) (*model.User, error) {
	var u model.User
	var role *model.Role
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role); err != nil {
		return nil, err
	}
	if role != nil {
		u.Role = *role
	}
	return &u, nil
}
