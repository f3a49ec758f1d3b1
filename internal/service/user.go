package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/voltcart/storefront-api/internal/dto"
	"github.com/voltcart/storefront-api/internal/repository"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
)

// UserService covers the account area: profile reads/updates and the
// wishlist.
type UserService struct {
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	wishlistRepo repository.WishlistRepository
}

func NewUserService(userRepo repository.UserRepository, productRepo repository.ProductRepository, wishlistRepo repository.WishlistRepository) *UserService {
	return &UserService{userRepo: userRepo, productRepo: productRepo, wishlistRepo: wishlistRepo}
}

func (s *UserService) GetProfile(ctx context.Context, id int64) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &dto.ProfileResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Address: user.Address,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, req dto.UpdateProfileRequest) error {
	var hashed string
	if req.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hashed = string(h)
	}

	err := s.userRepo.UpdateProfile(ctx, id, req.Name, req.Address, hashed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *UserService) GetWishlist(ctx context.Context, userID int64) ([]dto.WishlistItemResponse, error) {
	items, err := s.wishlistRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	resp := make([]dto.WishlistItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.WishlistItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			AddedAt:   item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *UserService) AddToWishlist(ctx context.Context, userID, productID int64) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.wishlistRepo.Add(ctx, userID, productID)
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	err := s.wishlistRepo.Remove(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrWishlistItemNotFound
		}
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}
