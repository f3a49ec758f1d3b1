package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voltcart/storefront-api/internal/model"
)

type WishlistRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.WishlistItem, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
}

type sqliteWishlistRepo struct{ db *sql.DB }

func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &sqliteWishlistRepo{db: db}
}

func (r *sqliteWishlistRepo) ListByUserID(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.wishlist_id, w.user_id, w.product_id, p.name, p.price, COALESCE(p.image, ''), w.created_at
		 FROM wishlist w
		 JOIN products p ON w.product_id = p.product_id
		 WHERE w.user_id = ?
		 ORDER BY w.created_at DESC, w.wishlist_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var items []model.WishlistItem
	for rows.Next() {
		var item model.WishlistItem
		err := rows.Scan(&item.ID, &item.UserID, &item.ProductID,
			&item.Name, &item.Price, &item.Image, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *sqliteWishlistRepo) Add(ctx context.Context, userID, productID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO wishlist (user_id, product_id) VALUES (?, ?)`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (r *sqliteWishlistRepo) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
