package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Blog mirrors the 'blogs' table. Author is a display name; CreatedBy links
// the post to the writing user for ownership checks.
type Blog struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	ImageURL  string    `json:"imageUrl"`
	CreatedBy uint64    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BlogRepo struct{ DB *sql.DB }

func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{DB: db} }

const blogColumns = "id,title,content,author,image_url,created_by,created_at,updated_at"

func (r *BlogRepo) Create(ctx context.Context, b *Blog) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO blogs (title, content, author, image_url, created_by) VALUES (?,?,?,?,?)",
		b.Title, b.Content, b.Author, b.ImageURL, b.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM blogs WHERE id=?", b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BlogRepo) GetByID(ctx context.Context, id uint64) (*Blog, error) {
	var b Blog
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+blogColumns+" FROM blogs WHERE id=? LIMIT 1", id).
		Scan(&b.ID, &b.Title, &b.Content, &b.Author, &b.ImageURL,
			&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListAll returns all posts, newest first. Used by the public listing.
func (r *BlogRepo) ListAll(ctx context.Context) ([]*Blog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+blogColumns+" FROM blogs ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Blog{}
	for rows.Next() {
		var b Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.Author, &b.ImageURL,
			&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists title, content and image. Ownership (author or admin) is
// decided by the handler, which passes allowAny=true for admins.
func (r *BlogRepo) Update(ctx context.Context, b *Blog, ownerID uint64, allowAny bool) error {
	if err := r.checkOwner(ctx, b.ID, ownerID, allowAny); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE blogs SET title=?, content=?, image_url=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		b.Title, b.Content, b.ImageURL, b.ID)
	return err
}

func (r *BlogRepo) Delete(ctx context.Context, id, ownerID uint64, allowAny bool) error {
	if err := r.checkOwner(ctx, id, ownerID, allowAny); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM blogs WHERE id=?", id)
	return err
}

func (r *BlogRepo) checkOwner(ctx context.Context, id, ownerID uint64, allowAny bool) error {
	var dbOwner uint64
	err := r.DB.QueryRowContext(ctx, "SELECT created_by FROM blogs WHERE id=? LIMIT 1", id).Scan(&dbOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBlogNotFound
		}
		return err
	}
	if !allowAny && dbOwner != ownerID {
		return ErrForbidden
	}
	return nil
}
