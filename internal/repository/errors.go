// Package repository contains the data access layer. Repositories wrap a
// *sql.DB handle and translate driver errors into the sentinel values below
// so handlers can map them onto HTTP status codes without inspecting MySQL
// error strings themselves.
package repository

import (
	"errors"
	"strings"
)

var (
	// ErrForbidden signals that a record exists but belongs to another user.
	// Handlers translate it to 403, distinct from 404.
	ErrForbidden = errors.New("forbidden")

	ErrUserNotFound           = errors.New("user not found")
	ErrEmailExists            = errors.New("email already exists")
	ErrFoodItemNotFound       = errors.New("food item not found")
	ErrBlogNotFound           = errors.New("blog not found")
	ErrServiceAccountNotFound = errors.New("service account not found")
	ErrNameExists             = errors.New("service account name already exists")

	// ErrTokenInvalid is returned for refresh tokens that are unknown,
	// revoked, expired or already consumed by a concurrent rotation.
	ErrTokenInvalid = errors.New("refresh token invalid")
)

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062) on a unique index.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
