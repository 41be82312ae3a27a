package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"code_arena/internal/common"
	"code_arena/internal/domain/model"
	"code_arena/internal/platform/database"
)

type sqlUserRepository struct {
	db *database.DB
}

func NewSQLUserRepository(db *database.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

func (r *sqlUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`INSERT INTO users (id, email, username, password, created_at)
	          VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Username, user.HashedPassword, user.CreatedAt.UTC())
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("User with this email or username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlUserRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *sqlUserRepository) findOne(ctx context.Context, column, value string) (*model.User, error) {
	query := r.db.Rebind(`SELECT id, email, username, password, created_at
	          FROM users WHERE ` + column + ` = ?`)
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.Email, &user.Username, &user.HashedPassword, database.Timestamp{Time: &user.CreatedAt},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlUserRepository.FindBy(%s): %w", column, err)
	}
	return user, nil
}

func (r *sqlUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`)
	var n int
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlUserRepository.ExistsByEmailOrUsername: %w", err)
	}
	return n > 0, nil
}

func (r *sqlUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlUserRepository.Count: %w", err)
	}
	return n, nil
}
