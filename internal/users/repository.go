package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatehouse/internal/platform/db"
	"github.com/gatehouse/gatehouse/internal/shared"
)

// Repository defines persistence operations over user records.
type Repository interface {
	Create(ctx context.Context, email, hashedPassword string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindBy(ctx context.Context, field Field, value string) (*User, error)
	Update(ctx context.Context, id int64, changes Changes) error
}

const pgUniqueViolation = "23505"

const userColumns = "id, email, hashed_password, session_id, reset_token, created_at, updated_at"

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new user row. A unique violation on email surfaces as
// shared.ErrDuplicateUser.
func (r *PGRepository) Create(ctx context.Context, email, hashedPassword string) (*User, error) {
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO users (email, hashed_password, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
RETURNING `+userColumns, email, hashedPassword)
		return scanUser(row, &user)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, shared.ErrDuplicateUser
		}
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return &user, nil
}

// FindByID fetches a user by surrogate id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	var user User
	if err := scanUser(row, &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("users: find by id: %w", err)
	}
	return &user, nil
}

// FindBy fetches a user by one of the enumerated searchable fields. When
// more than one row matches, the lowest id wins; zero rows yield
// shared.ErrUserNotFound.
func (r *PGRepository) FindBy(ctx context.Context, field Field, value string) (*User, error) {
	if !field.Valid() {
		return nil, shared.ErrUnknownField
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + string(field) + ` = $1 ORDER BY id LIMIT 1`
	row := r.pool.QueryRow(ctx, query, value)
	var user User
	if err := scanUser(row, &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("users: find by %s: %w", field, err)
	}
	return &user, nil
}

// Update applies the change set to a user row inside a transaction. Either
// every field changes and the transaction commits, or none do.
func (r *PGRepository) Update(ctx context.Context, id int64, changes Changes) error {
	if changes.Empty() {
		return shared.ErrUnknownField
	}
	assignments, args := buildAssignments(changes)
	args = append(args, time.Now().UTC())
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`,
		strings.Join(assignments, ", "), len(args))
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("users: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrUserNotFound
		}
		return nil
	})
}

func buildAssignments(changes Changes) ([]string, []any) {
	var assignments []string
	var args []any
	next := func() int { return len(args) + 1 }
	if changes.HashedPassword != nil {
		assignments = append(assignments, fmt.Sprintf("hashed_password = $%d", next()))
		args = append(args, *changes.HashedPassword)
	}
	if changes.SessionID != nil {
		assignments = append(assignments, fmt.Sprintf("session_id = $%d", next()))
		args = append(args, *changes.SessionID)
	} else if changes.ClearSessionID {
		assignments = append(assignments, "session_id = NULL")
	}
	if changes.ResetToken != nil {
		assignments = append(assignments, fmt.Sprintf("reset_token = $%d", next()))
		args = append(args, *changes.ResetToken)
	} else if changes.ClearResetToken {
		assignments = append(assignments, "reset_token = NULL")
	}
	return assignments, args
}

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.SessionID,
		&user.ResetToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

var _ Repository = (*PGRepository)(nil)
