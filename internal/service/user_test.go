package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/voltcart/storefront-api/internal/dto"
	"github.com/voltcart/storefront-api/internal/model"
)

type mockWishlistRepo struct {
	items map[int64][]int64
}

func newMockWishlistRepo() *mockWishlistRepo {
	return &mockWishlistRepo{items: make(map[int64][]int64)}
}

func (m *mockWishlistRepo) ListByUserID(_ context.Context, userID int64) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	for _, productID := range m.items[userID] {
		items = append(items, model.WishlistItem{UserID: userID, ProductID: productID})
	}
	return items, nil
}

func (m *mockWishlistRepo) Add(_ context.Context, userID, productID int64) error {
	for _, id := range m.items[userID] {
		if id == productID {
			return nil
		}
	}
	m.items[userID] = append(m.items[userID], productID)
	return nil
}

func (m *mockWishlistRepo) Remove(_ context.Context, userID, productID int64) error {
	for i, id := range m.items[userID] {
		if id == productID {
			m.items[userID] = append(m.items[userID][:i], m.items[userID][i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestUserService_GetProfile(t *testing.T) {
	users := newMockUserRepo()
	users.users[1] = &model.User{ID: 1, Email: "eve@example.com", Name: "Eve", Address: "2 Side Road"}
	svc := NewUserService(users, newMockProductRepo(), newMockWishlistRepo())

	profile, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "eve@example.com", profile.Email)
	assert.Equal(t, "2 Side Road", profile.Address)

	_, err = svc.GetProfile(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	users := newMockUserRepo()
	users.users[1] = &model.User{ID: 1, Email: "eve@example.com", Name: "Eve", Password: "old-hash"}
	svc := NewUserService(users, newMockProductRepo(), newMockWishlistRepo())
	ctx := context.Background()

	require.NoError(t, svc.UpdateProfile(ctx, 1, dto.UpdateProfileRequest{Name: "Eve R", Address: "3 New Road"}))
	assert.Equal(t, "Eve R", users.users[1].Name)
	assert.Equal(t, "old-hash", users.users[1].Password, "password untouched when not supplied")

	require.NoError(t, svc.UpdateProfile(ctx, 1, dto.UpdateProfileRequest{Name: "Eve R", Password: "new-secret"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.users[1].Password), []byte("new-secret")))

	err := svc.UpdateProfile(ctx, 404, dto.UpdateProfileRequest{Name: "nobody"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Wishlist(t *testing.T) {
	users := newMockUserRepo()
	products := newMockProductRepo()
	products.put(7, "25.00", 3)
	svc := NewUserService(users, products, newMockWishlistRepo())
	ctx := context.Background()

	err := svc.AddToWishlist(ctx, 1, 404)
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, svc.AddToWishlist(ctx, 1, 7))
	items, err := svc.GetWishlist(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ProductID)

	require.NoError(t, svc.RemoveFromWishlist(ctx, 1, 7))
	err = svc.RemoveFromWishlist(ctx, 1, 7)
	assert.ErrorIs(t, err, ErrWishlistItemNotFound)
}
