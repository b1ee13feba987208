package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ServiceAccount mirrors the 'service_accounts' table. SecretHash never
// leaves the repository in list/get paths and is excluded from JSON so the
// one-time-reveal contract cannot be broken by serializing the record.
type ServiceAccount struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ServiceName string    `json:"serviceName"`
	Scopes      []string  `json:"scopes"`
	ClientID    string    `json:"clientId"`
	SecretHash  string    `json:"-"`
	Active      bool      `json:"active"`
	CreatedBy   *uint64   `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ServiceAccountRepo struct{ DB *sql.DB }

func NewServiceAccountRepo(db *sql.DB) *ServiceAccountRepo { return &ServiceAccountRepo{DB: db} }

const serviceAccountColumns = "id,name,description,service_name,scopes,client_id,is_active,created_by,created_at,updated_at"

// Create inserts the account and populates its ID. The name column is
// unique; duplicates yield ErrNameExists.
func (r *ServiceAccountRepo) Create(ctx context.Context, a *ServiceAccount) error {
	scopes, err := json.Marshal(a.Scopes)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO service_accounts (name, description, service_name, scopes, client_id, secret_hash, is_active, created_by) VALUES (?,?,?,?,?,?,?,?)",
		a.Name, a.Description, a.ServiceName, string(scopes), a.ClientID, a.SecretHash, a.Active, a.CreatedBy)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM service_accounts WHERE id=?", a.ID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

// GetByID fetches an account without its secret hash.
func (r *ServiceAccountRepo) GetByID(ctx context.Context, id uint64) (*ServiceAccount, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+serviceAccountColumns+" FROM service_accounts WHERE id=? LIMIT 1", id)
	return scanServiceAccount(row)
}

// GetByClientID fetches an account including its secret hash. Only the
// token-mint path uses this method.
func (r *ServiceAccountRepo) GetByClientID(ctx context.Context, clientID string) (*ServiceAccount, error) {
	var (
		a      ServiceAccount
		scopes sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description,service_name,scopes,client_id,secret_hash,is_active,created_by,created_at,updated_at FROM service_accounts WHERE client_id=? LIMIT 1",
		clientID).Scan(&a.ID, &a.Name, &a.Description, &a.ServiceName, &scopes,
		&a.ClientID, &a.SecretHash, &a.Active, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceAccountNotFound
		}
		return nil, err
	}
	a.Scopes = decodeScopes(scopes)
	return &a, nil
}

// List returns all accounts, newest first, secrets excluded.
func (r *ServiceAccountRepo) List(ctx context.Context) ([]*ServiceAccount, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+serviceAccountColumns+" FROM service_accounts ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*ServiceAccount{}
	for rows.Next() {
		a, err := scanServiceAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists name, description, scopes and active flag. The service
// name is immutable after creation; scope validation against it happens in
// the handler.
func (r *ServiceAccountRepo) Update(ctx context.Context, a *ServiceAccount) error {
	scopes, err := json.Marshal(a.Scopes)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE service_accounts SET name=?, description=?, scopes=?, is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		a.Name, a.Description, string(scopes), a.Active, a.ID)
	if isDuplicateKey(err) {
		return ErrNameExists
	}
	return err
}

// UpdateSecret replaces the stored secret hash, invalidating the previous
// client secret immediately.
func (r *ServiceAccountRepo) UpdateSecret(ctx context.Context, id uint64, secretHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE service_accounts SET secret_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		secretHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceAccountNotFound
	}
	return nil
}

// Delete removes the account permanently.
func (r *ServiceAccountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM service_accounts WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceAccountNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanServiceAccount(row rowScanner) (*ServiceAccount, error) {
	var (
		a      ServiceAccount
		scopes sql.NullString
	)
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.ServiceName, &scopes,
		&a.ClientID, &a.Active, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceAccountNotFound
		}
		return nil, err
	}
	a.Scopes = decodeScopes(scopes)
	return &a, nil
}
func decodeScopes(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return []string{}
	}
	var scopes []string
	if err := json.Unmarshal([]byte(col.String), &scopes); err != nil {
		return []string{}
	}
	return scopes
}
