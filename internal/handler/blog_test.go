package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
	"github.com/iliyamo/food-delivery-platform/internal/middleware"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
)

func newBlogHandler(t *testing.T) (*BlogHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBlogHandler(testConfig(), zap.NewNop(), repository.NewBlogRepo(db)), mock
}

func TestBlogDeleteForeignPost(t *testing.T) {
	h, mock := newBlogHandler(t)

	mock.ExpectQuery("SELECT created_by FROM blogs WHERE id=? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_by"}).AddRow(uint64(2)))

	req, rec := jsonRequest(http.MethodDelete, "/api/blogs/5", "")
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	asUser(c, 9)
	c.Set(middleware.CtxRole, auth.RoleRestaurantAdmin)
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to delete this blog", decodeBody(t, rec)["message"])
}

// Admins bypass the ownership check on blog posts.
func TestBlogDeleteAdminOverride(t *testing.T) {
	h, mock := newBlogHandler(t)

	mock.ExpectQuery("SELECT created_by FROM blogs WHERE id=? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_by"}).AddRow(uint64(2)))
	mock.ExpectExec("DELETE FROM blogs WHERE id=?").
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req, rec := jsonRequest(http.MethodDelete, "/api/blogs/5", "")
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	asUser(c, 9)
	c.Set(middleware.CtxRole, auth.RoleAdmin)
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlogCreateRequiresContent(t *testing.T) {
	h, _ := newBlogHandler(t)

	req, rec := jsonRequest(http.MethodPost, "/api/blogs", `{"title":"Launch week"}`)
	c := echo.New().NewContext(req, rec)
	asUser(c, 9)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide title and content", decodeBody(t, rec)["message"])
}

func TestBlogCreateDefaultsAuthorToEmail(t *testing.T) {
	h, mock := newBlogHandler(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO blogs (title, content, author, image_url, created_by) VALUES (?,?,?,?,?)").
		WithArgs("Launch week", "We shipped.", "jane@example.com", "", uint64(9)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM blogs WHERE id=?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	req, rec := jsonRequest(http.MethodPost, "/api/blogs", `{"title":"Launch week","content":"We shipped."}`)
	c := echo.New().NewContext(req, rec)
	asUser(c, 9)
	c.Set(middleware.CtxEmail, "jane@example.com")
	require.NoError(t, h.Create(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	data, _ := decodeBody(t, rec)["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "jane@example.com", data["author"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlogGetByIDNotFound(t *testing.T) {
	h, mock := newBlogHandler(t)

	mock.ExpectQuery("SELECT id,title,content,author,image_url,created_by,created_at,updated_at FROM blogs WHERE id=? LIMIT 1").
		WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req, rec := jsonRequest(http.MethodGet, "/api/public/blogs/77", "")
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.GetByID(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog not found", decodeBody(t, rec)["message"])
}
