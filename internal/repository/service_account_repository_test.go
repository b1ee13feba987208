package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceAccountRepo(t *testing.T) (*ServiceAccountRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServiceAccountRepo(db), mock
}

func TestServiceAccountRepoCreate(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO service_accounts (name, description, service_name, scopes, client_id, secret_hash, is_active, created_by) VALUES (?,?,?,?,?,?,?,?)").
		WithArgs("orders-sync", "syncs orders", "restaurant", `["read:menu","read:orders"]`,
			"sa_123", "hashed", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM service_accounts WHERE id=?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	creator := uint64(1)
	a := &ServiceAccount{
		Name:        "orders-sync",
		Description: "syncs orders",
		ServiceName: "restaurant",
		Scopes:      []string{"read:menu", "read:orders"},
		ClientID:    "sa_123",
		SecretHash:  "hashed",
		Active:      true,
		CreatedBy:   &creator,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, uint64(5), a.ID)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAccountRepoCreateDuplicateName(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)

	mock.ExpectExec("INSERT INTO service_accounts (name, description, service_name, scopes, client_id, secret_hash, is_active, created_by) VALUES (?,?,?,?,?,?,?,?)").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'orders-sync' for key 'name'"))

	err := repo.Create(context.Background(), &ServiceAccount{Name: "orders-sync", Scopes: []string{}})
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestServiceAccountRepoGetByIDExcludesSecret(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "service_name", "scopes",
		"client_id", "is_active", "created_by", "created_at", "updated_at"}).
		AddRow(uint64(2), "courier-feed", "", "delivery", `["read:orders"]`,
			"sa_abc", true, nil, now, now)
	mock.ExpectQuery("SELECT " + serviceAccountColumns + " FROM service_accounts WHERE id=? LIMIT 1").
		WithArgs(uint64(2)).
		WillReturnRows(rows)

	a, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "courier-feed", a.Name)
	assert.Equal(t, []string{"read:orders"}, a.Scopes)
	assert.Empty(t, a.SecretHash)
	assert.Nil(t, a.CreatedBy)
}

func TestServiceAccountRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)

	mock.ExpectQuery("SELECT " + serviceAccountColumns + " FROM service_accounts WHERE id=? LIMIT 1").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "service_name", "scopes",
			"client_id", "is_active", "created_by", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrServiceAccountNotFound)
}

func TestServiceAccountRepoGetByClientID(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "service_name", "scopes",
		"client_id", "secret_hash", "is_active", "created_by", "created_at", "updated_at"}).
		AddRow(uint64(3), "payments-bridge", "", "payment", `["read:payments"]`,
			"sa_pay", "$2a$10$hash", true, nil, now, now)
	mock.ExpectQuery("SELECT id,name,description,service_name,scopes,client_id,secret_hash,is_active,created_by,created_at,updated_at FROM service_accounts WHERE client_id=? LIMIT 1").
		WithArgs("sa_pay").
		WillReturnRows(rows)

	a, err := repo.GetByClientID(context.Background(), "sa_pay")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", a.SecretHash)
}

func TestServiceAccountRepoUpdateSecretNotFound(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)

	mock.ExpectExec("UPDATE service_accounts SET secret_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?").
		WithArgs("newhash", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSecret(context.Background(), 42, "newhash")
	assert.ErrorIs(t, err, ErrServiceAccountNotFound)
}

func TestServiceAccountRepoDelete(t *testing.T) {
	repo, mock := newServiceAccountRepo(t)

	mock.ExpectExec("DELETE FROM service_accounts WHERE id=?").
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), 2))
}

func TestDecodeScopesTolerant(t *testing.T) {
	assert.Empty(t, decodeScopes(nullString("")))
	assert.Empty(t, decodeScopes(nullString("not json")))
	assert.Equal(t, []string{"read:menu"}, decodeScopes(nullString(`["read:menu"]`)))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
