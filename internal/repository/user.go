package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voltcart/storefront-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, name, address string, password string) error
}

type sqliteUserRepo struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password, name, address, role) VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.Password, user.Name, user.Address, user.Role,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, `WHERE user_id = ?`, id)
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, `WHERE email = ?`, email)
}

func (r *sqliteUserRepo) getBy(ctx context.Context, where string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, password, COALESCE(name, ''), COALESCE(address, ''), role, created_at
		 FROM users `+where, arg,
	).Scan(&user.ID, &user.Email, &user.Password, &user.Name, &user.Address, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates name and address; the password column is touched
// only when a new hash is supplied.
func (r *sqliteUserRepo) UpdateProfile(ctx context.Context, id int64, name, address string, password string) error {
	var (
		res sql.Result
		err error
	)
	if password != "" {
		res, err = r.db.ExecContext(ctx,
			`UPDATE users SET name = ?, address = ?, password = ? WHERE user_id = ?`,
			name, address, password, id,
		)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE users SET name = ?, address = ? WHERE user_id = ?`,
			name, address, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
