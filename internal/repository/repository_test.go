package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/voltcart/storefront-api/internal/config"
	"github.com/voltcart/storefront-api/internal/database"
	"github.com/voltcart/storefront-api/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.DBConfig{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
	db, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Password: "hashed", Name: "Test User", Role: "customer"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, db *sql.DB, name string, price float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:  name,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
		Image: "/Images/" + name + ".jpg",
	}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), product))
	return product
}
