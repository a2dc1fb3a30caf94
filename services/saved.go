package services

import (
	"context"
	"time"

	"github.com/Kariqs/amexan-market/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultSavedLimit = 12

var (
	errAlreadySaved  = newError(KindValidationFailed, "Product already saved")
	errSavedNotFound = newError(KindNotFound, "Saved product not found")
)

type SavedProductView struct {
	ProductID    string    `json:"productId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Unit         string    `json:"unit"`
	InStock      bool      `json:"inStock"`
	Rating       string    `json:"rating"`
	ReviewCount  int       `json:"reviewCount"`
	Brand        string    `json:"brand"`
	SellerID     string    `json:"sellerId"`
	ProductImage string    `json:"productImage,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
}

type savedRow struct {
	ProductID    string
	Name         string
	Description  string
	Price        decimal.Decimal
	Unit         string
	InStock      bool
	Rating       decimal.Decimal
	ReviewCount  int
	Brand        string
	SellerID     string
	ProductImage string
	SavedAt      time.Time
}

type SavedService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSavedService(db *gorm.DB) *SavedService {
	return &SavedService{db: db, now: time.Now}
}

func (s *SavedService) Save(ctx context.Context, caller *models.Caller, productID string) error {
	if caller == nil || caller.ID == "" {
		return ErrUnauthenticated
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return wrapError(KindUnexpected, "Failed to save product", err)
	}
	if count == 0 {
		return errProductNotFound
	}

	saved := models.SavedProduct{
		ID:        uuid.NewString(),
		UserID:    caller.ID,
		ProductID: productID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&saved).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errAlreadySaved
		}
		return wrapError(KindUnexpected, "Failed to save product", err)
	}
	return nil
}

func (s *SavedService) Unsave(ctx context.Context, caller *models.Caller, productID string) error {
	if caller == nil || caller.ID == "" {
		return ErrUnauthenticated
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", caller.ID, productID).
		Delete(&models.SavedProduct{})
	if res.Error != nil {
		return wrapError(KindUnexpected, "Failed to remove saved product", res.Error)
	}
	if res.RowsAffected == 0 {
		return errSavedNotFound
	}
	return nil
}

func (s *SavedService) IsSaved(ctx context.Context, caller *models.Caller, productID string) (bool, error) {
	if caller == nil || caller.ID == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SavedProduct{}).
		Where("user_id = ? AND product_id = ?", caller.ID, productID).
		Count(&count).Error
	if err != nil {
		return false, wrapError(KindUnexpected, "Failed to check saved product", err)
	}
	return count > 0, nil
}

// IDs returns every product id the caller has saved, for marking product lists in bulk.
func (s *SavedService) IDs(ctx context.Context, caller *models.Caller) ([]string, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	ids := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.SavedProduct{}).
		Where("user_id = ?", caller.ID).
		Order("created_at DESC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch saved products", err)
	}
	return ids, nil
}

func (s *SavedService) List(ctx context.Context, caller *models.Caller, p Pagination) ([]SavedProductView, PageMeta, error) {
	if caller == nil || caller.ID == "" {
		return nil, PageMeta{}, ErrUnauthenticated
	}
	p = p.normalizeWith(defaultSavedLimit, maxPageLimit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.SavedProduct{}).Where("user_id = ?", caller.ID).Count(&total).Error; err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch saved products", err)
	}

	var rows []savedRow
	err := s.db.WithContext(ctx).
		Table("saved_products").
		Select(`products.id AS product_id, products.name, COALESCE(products.description, '') AS description,
			products.price, COALESCE(products.unit, '') AS unit, products.in_stock, products.rating,
			products.review_count, COALESCE(products.brand, '') AS brand, products.seller_id,
			COALESCE((SELECT pi.url FROM product_images pi
				WHERE pi.product_id = products.id AND pi.is_primary = ?
				ORDER BY pi.created_at LIMIT 1), '') AS product_image,
			saved_products.created_at AS saved_at`, true).
		Joins("JOIN products ON products.id = saved_products.product_id").
		Where("saved_products.user_id = ?", caller.ID).
		Order("saved_products.created_at DESC").
		Limit(p.Limit).Offset(p.offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch saved products", err)
	}

	views := make([]SavedProductView, 0, len(rows))
	for _, r := range rows {
		views = append(views, SavedProductView{
			ProductID:    r.ProductID,
			Name:         r.Name,
			Description:  r.Description,
			Price:        formatMoney(r.Price),
			Unit:         r.Unit,
			InStock:      r.InStock,
			Rating:       formatMoney(r.Rating),
			ReviewCount:  r.ReviewCount,
			Brand:        r.Brand,
			SellerID:     r.SellerID,
			ProductImage: r.ProductImage,
			SavedAt:      r.SavedAt,
		})
	}
	return views, newPageMeta(p, total), nil
}
