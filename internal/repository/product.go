package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/voltcart/storefront-api/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	List(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type sqliteProductRepo struct{ db *sql.DB }

func NewProductRepository(db *sql.DB) ProductRepository {
	return &sqliteProductRepo{db: db}
}

const productColumns = `product_id, category_id, name, COALESCE(description, ''), price, stock,
	COALESCE(image, ''), review_count, rating`

func scanProduct(row interface{ Scan(...any) error }, p *model.Product) error {
	return row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Image, &p.ReviewCount, &p.Rating)
}

func (r *sqliteProductRepo) Create(ctx context.Context, product *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (category_id, name, description, price, stock, image, review_count, rating)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.CategoryID, product.Name, product.Description, product.Price,
		product.Stock, product.Image, product.ReviewCount, product.Rating,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	product.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *sqliteProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p := &model.Product{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id)
	if err := scanProduct(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByIDs loads the products for a set of ids in one query. Ids with no
// matching row are simply absent from the result map.
func (r *sqliteProductRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	if len(ids) == 0 {
		return map[int64]model.Product{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]model.Product, len(ids))
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (r *sqliteProductRepo) List(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "price": true, "rating": true, "product_id": true}
	if !allowedSorts[sort] {
		sort = "product_id"
	}
	if order != "asc" && order != "desc" {
		order = "asc"
	}

	var total int
	countQ := `SELECT COUNT(*) FROM products
		WHERE (? = '' OR name LIKE '%' || ? || '%' OR description LIKE '%' || ? || '%')`
	if err := r.db.QueryRowContext(ctx, countQ, search, search, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products
		WHERE (? = '' OR name LIKE '%%' || ? || '%%' OR description LIKE '%%' || ? || '%%')
		ORDER BY %s %s LIMIT ? OFFSET ?`, sort, order)

	rows, err := r.db.QueryContext(ctx, query, search, search, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *sqliteProductRepo) Update(ctx context.Context, product *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET category_id = ?, name = ?, description = ?, price = ?, stock = ?,
			image = ?, review_count = ?, rating = ?
		 WHERE product_id = ?`,
		product.CategoryID, product.Name, product.Description, product.Price,
		product.Stock, product.Image, product.ReviewCount, product.Rating, product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *sqliteProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *sqliteProductRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
