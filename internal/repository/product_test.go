package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltcart/storefront-api/internal/model"
)

func TestProductRepo_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{
		Name:        "PlayStation 5 Console",
		Description: "Gaming console",
		Price:       decimal.RequireFromString("499.99"),
		Stock:       20,
		Image:       "/Images/ps5-console.jpg",
		ReviewCount: 1203,
		Rating:      4.5,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "PlayStation 5 Console", found.Name)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("499.99")))
	assert.Equal(t, 20, found.Stock)

	found.Stock = 15
	found.Name = "PlayStation 5 Slim"
	require.NoError(t, repo.Update(ctx, found))

	found, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "PlayStation 5 Slim", found.Name)
	assert.Equal(t, 15, found.Stock)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProductRepo_GetByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p1 := createTestProduct(t, db, "macbook", 2499.99, 5)
	p2 := createTestProduct(t, db, "headphones", 349.99, 10)

	products, err := repo.GetByIDs(ctx, []int64{p1.ID, p2.ID, 99999})
	require.NoError(t, err)
	assert.Len(t, products, 2, "unknown id is simply absent")
	assert.Equal(t, 5, products[p1.ID].Stock)
	assert.Equal(t, 10, products[p2.ID].Stock)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProductRepo_ListSearchAndSort(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	createTestProduct(t, db, "iPhone 15 Pro Max", 1199.99, 20)
	createTestProduct(t, db, "Apple Watch Series 9", 499.99, 20)
	createTestProduct(t, db, "Canon EOS R6", 2499.99, 20)

	all, total, err := repo.List(ctx, 10, 0, "", "price", "asc")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "Apple Watch Series 9", all[0].Name)
	assert.Equal(t, "Canon EOS R6", all[2].Name)

	matched, total, err := repo.List(ctx, 10, 0, "apple", "product_id", "asc")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, matched, 1)
	assert.Equal(t, "Apple Watch Series 9", matched[0].Name)
}

func TestProductRepo_SeededCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 6)
	assert.Equal(t, "Laptops", categories[0].Name)
}
