package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// FoodItem mirrors the 'food_items' table. Each item belongs to the
// restaurant admin who created it; mutating operations are owner-scoped.
type FoodItem struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl"`
	CreatedBy   uint64    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type FoodItemRepo struct{ DB *sql.DB }

func NewFoodItemRepo(db *sql.DB) *FoodItemRepo { return &FoodItemRepo{DB: db} }

const foodItemColumns = "id,title,description,category,image_url,created_by,created_at,updated_at"

// Create inserts a food item and populates its ID and timestamps.
func (r *FoodItemRepo) Create(ctx context.Context, f *FoodItem) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO food_items (title, description, category, image_url, created_by) VALUES (?,?,?,?,?)",
		f.Title, f.Description, f.Category, f.ImageURL, f.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM food_items WHERE id=?", f.ID).
		Scan(&f.CreatedAt, &f.UpdatedAt)
}

// GetByID fetches a single item regardless of owner.
func (r *FoodItemRepo) GetByID(ctx context.Context, id uint64) (*FoodItem, error) {
	var f FoodItem
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+foodItemColumns+" FROM food_items WHERE id=? LIMIT 1", id).
		Scan(&f.ID, &f.Title, &f.Description, &f.Category, &f.ImageURL,
			&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFoodItemNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByCreator returns the items created by one restaurant admin.
func (r *FoodItemRepo) ListByCreator(ctx context.Context, userID uint64) ([]*FoodItem, error) {
	return r.list(ctx, "SELECT "+foodItemColumns+" FROM food_items WHERE created_by=? ORDER BY created_at DESC", userID)
}

// ListAll returns every item for the public menu listing.
func (r *FoodItemRepo) ListAll(ctx context.Context) ([]*FoodItem, error) {
	return r.list(ctx, "SELECT "+foodItemColumns+" FROM food_items ORDER BY created_at DESC")
}

// Update persists the mutable fields if the item belongs to ownerID.
// ErrForbidden distinguishes "exists but not yours" from ErrFoodItemNotFound.
func (r *FoodItemRepo) Update(ctx context.Context, f *FoodItem, ownerID uint64) error {
	if err := r.checkOwner(ctx, f.ID, ownerID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE food_items SET title=?, description=?, category=?, image_url=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		f.Title, f.Description, f.Category, f.ImageURL, f.ID)
	return err
}

// Delete removes an item owned by ownerID.
func (r *FoodItemRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM food_items WHERE id=?", id)
	return err
}

func (r *FoodItemRepo) checkOwner(ctx context.Context, id, ownerID uint64) error {
	var dbOwner uint64
	err := r.DB.QueryRowContext(ctx, "SELECT created_by FROM food_items WHERE id=? LIMIT 1", id).Scan(&dbOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFoodItemNotFound
		}
		return err
	}
	if dbOwner != ownerID {
		return ErrForbidden
	}
	return nil
}

func (r *FoodItemRepo) list(ctx context.Context, query string, args ...any) ([]*FoodItem, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*FoodItem{}
	for rows.Next() {
		var f FoodItem
		if err := rows.Scan(&f.ID, &f.Title, &f.Description, &f.Category, &f.ImageURL,
			&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
