package services

import (
	"context"

	"github.com/Kariqs/amexan-market/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// Product returns a listing with its images, primary image first.
func (s *ProductService) Product(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Where("id = ?", productID).
		Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errProductNotFound
	}
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch product", err)
	}
	return &product, nil
}
