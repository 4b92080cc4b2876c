package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/crucial707/sqlgate/internal/db"
	"github.com/crucial707/sqlgate/internal/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, username, created_at, updated_at`

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sqlx.DB

	// now is swapped in tests.
	now func() time.Time
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(conn *sqlx.DB) *UserRepo {
	return &UserRepo{
		DB:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ==========================
// Create User
// ==========================
// Create inserts the user and reads the stored row back inside one
// transaction. Nothing is committed unless both steps succeed.
func (r *UserRepo) Create(ctx context.Context, email, username string) (*models.User, error) {
	var user *models.User

	err := db.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		id, err := r.insert(ctx, tx, email, username)
		if err != nil {
			return err
		}
		user, err = getByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) insert(ctx context.Context, tx *sqlx.Tx, email, username string) (int64, error) {
	createdAt := r.now()

	// mysql has no RETURNING clause.
	if tx.DriverName() == db.DriverMySQL {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, username, created_at) VALUES (?, ?, ?)`,
			email, username, createdAt,
		)
		if err != nil {
			return 0, db.MapError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, db.MapError(err)
		}
		return id, nil
	}

	var id int64
	err := tx.QueryRowxContext(ctx,
		tx.Rebind(`INSERT INTO users (email, username, created_at) VALUES (?, ?, ?) RETURNING id`),
		email, username, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, db.MapError(err)
	}
	return id, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := getByID(ctx, r.DB, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func getByID(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.User, error) {
	user := &models.User{}
	query := sqlx.Rebind(sqlx.BindType(driverName(q)), `SELECT `+userColumns+` FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, user, query, id); err != nil {
		return nil, db.MapError(err)
	}
	return user, nil
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	users := []models.User{}
	err := r.DB.SelectContext(ctx, &users,
		r.DB.Rebind(`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`),
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", db.MapError(err))
	}
	return users, nil
}

// ==========================
// Update User
// ==========================
// Update overwrites email and username, stamps updated_at and returns the
// stored row. A missing id yields db.ErrNotFound and nothing is written.
func (r *UserRepo) Update(ctx context.Context, id int64, email, username string) (*models.User, error) {
	var user *models.User

	err := db.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := getByID(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE users SET email = ?, username = ?, updated_at = ? WHERE id = ?`),
			email, username, r.now(), id,
		)
		if err != nil {
			return db.MapError(err)
		}
		user, err = getByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return db.MapError(err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return db.MapError(err)
		}
		if rows == 0 {
			return db.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func driverName(q sqlx.QueryerContext) string {
	if d, ok := q.(interface{ DriverName() string }); ok {
		return d.DriverName()
	}
	return ""
}
