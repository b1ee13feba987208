package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/food-delivery-platform/internal/utils"
)

// User mirrors the 'users' table. CustomPermissions is stored as a JSON
// array in the custom_permissions column and merged with the role's
// permission set at token issuance.
type User struct {
	ID                uint64    `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Role              string    `json:"userType"`
	CustomPermissions []string  `json:"customPermissions"`
	IsActive          bool      `json:"active"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,first_name,last_name,user_type,custom_permissions,is_active,created_at,updated_at"

// Create inserts a user and returns its ID. Emails are normalized to lower
// case; a duplicate email yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, firstName, lastName, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, user_type) VALUES (?,?,?,?,?)",
		email, hash, firstName, lastName, role)
	if err != nil {
		if isDuplicateKey(err) {
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
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// ListAll returns every user ordered by creation time, newest first.
func (r *UserRepo) ListAll(ctx context.Context) ([]*User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
}

// ListByRole returns users holding the given role, newest first.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM users WHERE user_type=? ORDER BY created_at DESC", role)
}

// UpdateCustomPermissions replaces the user's custom permission set. The
// caller is expected to have validated each value against the permission
// registry. ErrUserNotFound is returned when the id does not exist.
func (r *UserRepo) UpdateCustomPermissions(ctx context.Context, id uint64, permissions []string) error {
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET custom_permissions=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		string(encoded), id)
	return err
}

// SetActive enables or disables the account. Disabled users can no longer
// log in; existing refresh tokens are revoked by the handler.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		active, id)
	return err
}

// exists verifies the row is present. A plain RowsAffected check after
// UPDATE is unreliable here because MySQL reports zero affected rows when
// the new value equals the old one.
func (r *UserRepo) exists(ctx context.Context, id uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*User, error) {
	var (
		u     User
		perms sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &perms, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.CustomPermissions = decodePermissions(perms)
	return &u, nil
}

func (r *UserRepo) list(ctx context.Context, query string, args ...any) ([]*User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*User{}
	for rows.Next() {
		var (
			u     User
			perms sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Role, &perms, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.CustomPermissions = decodePermissions(perms)
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodePermissions tolerates NULL and malformed JSON by returning an empty
// set; a bad column value must not lock a user out of the platform.
func decodePermissions(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return []string{}
	}
	var perms []string
	if err := json.Unmarshal([]byte(col.String), &perms); err != nil {
		return []string{}
	}
	return perms
}
