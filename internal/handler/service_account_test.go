package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
	"github.com/iliyamo/food-delivery-platform/internal/utils"
)

func newServiceAccountHandler(t *testing.T) (*ServiceAccountHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServiceAccountHandler(testConfig(), zap.NewNop(), repository.NewServiceAccountRepo(db)), mock
}

func TestServiceAccountCreateRevealsSecretOnce(t *testing.T) {
	h, mock := newServiceAccountHandler(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO service_accounts (name, description, service_name, scopes, client_id, secret_hash, is_active, created_by) VALUES (?,?,?,?,?,?,?,?)").
		WithArgs("orders-sync", "", "restaurant", `["read:menu","read:orders"]`,
			sqlmock.AnyArg(), sqlmock.AnyArg(), true, nil).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM service_accounts WHERE id=?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts",
		`{"name":"orders-sync","serviceName":"restaurant"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)

	secret, _ := data["clientSecret"].(string)
	assert.Len(t, secret, 64)
	assert.Equal(t, secretRevealMessage, data["message"])

	// The serialized account never includes the secret hash.
	account, _ := data["serviceAccount"].(map[string]any)
	require.NotNil(t, account)
	assert.NotContains(t, account, "secretHash")
	assert.Equal(t, []any{"read:menu", "read:orders"}, account["scopes"])
	clientID, _ := account["clientId"].(string)
	assert.True(t, len(clientID) > 3 && clientID[:3] == "sa_")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAccountCreateUnknownService(t *testing.T) {
	h, _ := newServiceAccountHandler(t)

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts",
		`{"name":"x","serviceName":"inventory"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown service", decodeBody(t, rec)["message"])
}

func TestServiceAccountCreateInvalidScopes(t *testing.T) {
	h, _ := newServiceAccountHandler(t)

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts",
		`{"name":"x","serviceName":"delivery","scopes":["read:payments"]}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid scopes provided", decodeBody(t, rec)["message"])
}

func TestServiceAccountCreateDuplicateName(t *testing.T) {
	h, mock := newServiceAccountHandler(t)

	mock.ExpectExec("INSERT INTO service_accounts (name, description, service_name, scopes, client_id, secret_hash, is_active, created_by) VALUES (?,?,?,?,?,?,?,?)").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'orders-sync' for key 'name'"))

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts",
		`{"name":"orders-sync","serviceName":"restaurant"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Service account with this name already exists", decodeBody(t, rec)["message"])
}

func TestGetByIDInvalidParam(t *testing.T) {
	h, _ := newServiceAccountHandler(t)

	req, rec := jsonRequest(http.MethodGet, "/api/service-accounts/abc", "")
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid ID format", decodeBody(t, rec)["message"])
}

const serviceAccountByClientID = "SELECT id,name,description,service_name,scopes,client_id,secret_hash,is_active,created_by,created_at,updated_at FROM service_accounts WHERE client_id=? LIMIT 1"

func serviceAccountRow(t *testing.T, id uint64, clientID, serviceName, scopes, secret string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(secret, 4)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "name", "description", "service_name", "scopes",
		"client_id", "secret_hash", "is_active", "created_by", "created_at", "updated_at"}).
		AddRow(id, "acct", "", serviceName, scopes, clientID, hash, active, nil, now, now)
}

func TestTokenMintsServiceToken(t *testing.T) {
	h, mock := newServiceAccountHandler(t)

	mock.ExpectQuery(serviceAccountByClientID).
		WithArgs("sa_pay").
		WillReturnRows(serviceAccountRow(t, 3, "sa_pay", "payment", `["read:payments"]`, "topsecret", true))

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts/token",
		`{"clientId":"sa_pay","clientSecret":"topsecret"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Token(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Bearer", body["tokenType"])
	raw, _ := body["accessToken"].(string)
	require.NotEmpty(t, raw)

	claims, err := auth.VerifyServiceToken(testConfig().JWTSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), claims.ServiceID)
	assert.Equal(t, "payment", claims.ServiceName)
	assert.Equal(t, []string{"read:payments"}, claims.Scopes)

	// A service token must not pass user verification.
	_, err = auth.VerifyUserToken(testConfig().JWTSecret, raw)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenWrongSecret(t *testing.T) {
	h, mock := newServiceAccountHandler(t)

	mock.ExpectQuery(serviceAccountByClientID).
		WithArgs("sa_pay").
		WillReturnRows(serviceAccountRow(t, 3, "sa_pay", "payment", `["read:payments"]`, "topsecret", true))

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts/token",
		`{"clientId":"sa_pay","clientSecret":"guess"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Token(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid client credentials", decodeBody(t, rec)["message"])
}

func TestTokenInactiveAccountSameError(t *testing.T) {
	h, mock := newServiceAccountHandler(t)

	mock.ExpectQuery(serviceAccountByClientID).
		WithArgs("sa_pay").
		WillReturnRows(serviceAccountRow(t, 3, "sa_pay", "payment", `["read:payments"]`, "topsecret", false))

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts/token",
		`{"clientId":"sa_pay","clientSecret":"topsecret"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Token(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid client credentials", decodeBody(t, rec)["message"])
}

func TestTokenUnknownClientSameError(t *testing.T) {
	h, mock := newServiceAccountHandler(t)

	mock.ExpectQuery(serviceAccountByClientID).
		WithArgs("sa_ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req, rec := jsonRequest(http.MethodPost, "/api/service-accounts/token",
		`{"clientId":"sa_ghost","clientSecret":"whatever"}`)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Token(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid client credentials", decodeBody(t, rec)["message"])
}
