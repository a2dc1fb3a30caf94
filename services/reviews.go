package services

import (
	"context"
	"strings"
	"time"

	"github.com/Kariqs/amexan-market/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultReviewLimit = 10
	maxReviewLimit     = 20
	minReviewContent   = 5
)

var (
	errProductNotFound   = newError(KindNotFound, "Product not found")
	errAlreadyReviewed   = newError(KindValidationFailed, "Already reviewed this product")
	errPurchaseRequired  = newError(KindValidationFailed, "You can only review products you have purchased")
	errReviewRatingRange = newError(KindInvalidInput, "Rating must be between 1 and 5")
	errReviewContent     = newError(KindInvalidInput, "Review content must be at least 5 characters")
)

type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title"`
	Content string `json:"content" binding:"required,min=5"`
}

type ReviewAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type ReviewView struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	Rating    int          `json:"rating"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Helpful   int          `json:"helpful"`
	Verified  bool         `json:"verified"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      ReviewAuthor `json:"user"`
}

type Eligibility struct {
	CanReview bool   `json:"canReview"`
	Reason    string `json:"reason,omitempty"`
	HasReview bool   `json:"hasReview,omitempty"`
}

// Aggregate is the materialized rating of a product.
type Aggregate struct {
	Rating      decimal.Decimal
	ReviewCount int64
}

type reviewRow struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Title     string
	Content   string
	Helpful   int
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	UserName  string
	UserImage string
}

// ReviewService manages verified-purchase reviews and keeps Product.Rating and
// Product.ReviewCount equal to the aggregate of the product's reviews.
type ReviewService struct {
	db         *gorm.DB
	dispatcher EventDispatcher
	now        func() time.Time
}

func NewReviewService(db *gorm.DB, dispatcher EventDispatcher) *ReviewService {
	if dispatcher == nil {
		dispatcher = nopDispatcher{}
	}
	return &ReviewService{db: db, dispatcher: dispatcher, now: time.Now}
}

func (s *ReviewService) CanReview(ctx context.Context, caller *models.Caller, productID string) (*Eligibility, error) {
	if caller == nil || caller.ID == "" {
		return &Eligibility{Reason: "Must be logged in"}, nil
	}

	purchased, err := s.hasPurchased(ctx, caller.ID, productID)
	if err != nil {
		return nil, wrapError(KindUnexpected, "Error checking eligibility", err)
	}
	if !purchased {
		return &Eligibility{Reason: "Must purchase product to review"}, nil
	}

	reviewed, err := s.hasReviewed(ctx, caller.ID, productID)
	if err != nil {
		return nil, wrapError(KindUnexpected, "Error checking eligibility", err)
	}
	if reviewed {
		return &Eligibility{Reason: errAlreadyReviewed.Message, HasReview: true}, nil
	}
	return &Eligibility{CanReview: true}, nil
}

func (s *ReviewService) CreateReview(ctx context.Context, caller *models.Caller, productID string, in ReviewInput) (*models.Review, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateReview(&in); err != nil {
		return nil, err
	}
	if err := s.productExists(ctx, productID); err != nil {
		return nil, err
	}

	purchased, err := s.hasPurchased(ctx, caller.ID, productID)
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to create review", err)
	}
	if !purchased {
		return nil, errPurchaseRequired
	}
	reviewed, err := s.hasReviewed(ctx, caller.ID, productID)
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to create review", err)
	}
	if reviewed {
		return nil, errAlreadyReviewed
	}

	now := s.now().UTC()
	review := models.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    caller.ID,
		Rating:    in.Rating,
		Title:     in.Title,
		Content:   in.Content,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The unique index settles the race the pre-check above cannot.
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errAlreadyReviewed
		}
		return nil, wrapError(KindUnexpected, "Failed to create review", err)
	}

	s.recompute(ctx, productID)
	return &review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, caller *models.Caller, reviewID string, in ReviewInput) (*models.Review, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateReview(&in); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", reviewID, caller.ID).Take(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to update review", err)
	}

	review.Rating = in.Rating
	review.Title = in.Title
	review.Content = in.Content
	review.UpdatedAt = s.now().UTC()
	err = s.db.WithContext(ctx).Model(&review).Updates(map[string]any{
		"rating":     review.Rating,
		"title":      review.Title,
		"content":    review.Content,
		"updated_at": review.UpdatedAt,
	}).Error
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to update review", err)
	}

	s.recompute(ctx, review.ProductID)
	return &review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, caller *models.Caller, reviewID string) error {
	if caller == nil || caller.ID == "" {
		return ErrUnauthenticated
	}

	var review models.Review
	err := s.db.WithContext(ctx).
		Select("id", "product_id").
		Where("id = ? AND user_id = ?", reviewID, caller.ID).
		Take(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReviewNotFound
	}
	if err != nil {
		return wrapError(KindUnexpected, "Failed to delete review", err)
	}

	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", reviewID, caller.ID).Delete(&models.Review{})
	if res.Error != nil {
		return wrapError(KindUnexpected, "Failed to delete review", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	s.recompute(ctx, review.ProductID)
	return nil
}

func (s *ReviewService) ListReviews(ctx context.Context, productID string, p Pagination) ([]ReviewView, PageMeta, error) {
	p = p.normalizeWith(defaultReviewLimit, maxReviewLimit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch reviews", err)
	}

	var rows []reviewRow
	err := s.reviewQuery(ctx).
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(p.Limit).Offset(p.offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch reviews", err)
	}

	views := make([]ReviewView, 0, len(rows))
	for _, r := range rows {
		views = append(views, r.view())
	}
	return views, newPageMeta(p, total), nil
}

func (s *ReviewService) MyReview(ctx context.Context, caller *models.Caller, productID string) (*ReviewView, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	var rows []reviewRow
	err := s.reviewQuery(ctx).
		Where("reviews.product_id = ? AND reviews.user_id = ?", productID, caller.ID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch review", err)
	}
	if len(rows) == 0 {
		return nil, ErrReviewNotFound
	}
	view := rows[0].view()
	return &view, nil
}

func (s *ReviewService) MarkHelpful(ctx context.Context, caller *models.Caller, reviewID string) error {
	if caller == nil || caller.ID == "" {
		return ErrUnauthenticated
	}

	res := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", reviewID).
		UpdateColumn("helpful", gorm.Expr("helpful + ?", 1))
	if res.Error != nil {
		return wrapError(KindUnexpected, "Failed to mark review as helpful", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// Recompute rewrites the product's rating and review count from its reviews.
func (s *ReviewService) Recompute(ctx context.Context, productID string) (*Aggregate, error) {
	var row struct {
		Average decimal.Decimal
		Total   int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return nil, errors.Wrap(err, "aggregate reviews")
	}

	agg := &Aggregate{Rating: row.Average.Round(moneyScale), ReviewCount: row.Total}
	err = s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"rating": agg.Rating, "review_count": agg.ReviewCount}).Error
	if err != nil {
		return nil, errors.Wrap(err, "update product rating")
	}
	return agg, nil
}

// recompute runs after the review write has committed; a failure leaves the aggregate
// stale until the next review change and is only logged.
func (s *ReviewService) recompute(ctx context.Context, productID string) {
	ctx = context.WithoutCancel(ctx)
	agg, err := s.Recompute(ctx, productID)
	if err != nil {
		log.WithField("productId", productID).WithError(err).Error("failed to recompute product rating")
		return
	}

	event := ReviewAggregated{
		ProductID:   productID,
		Rating:      formatMoney(agg.Rating),
		ReviewCount: agg.ReviewCount,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		log.WithField("event", event.Type()).WithError(err).Warn("failed to dispatch event")
	}
}

func (s *ReviewService) reviewQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("reviews").
		Select(`reviews.id, reviews.product_id, reviews.user_id, reviews.rating,
			COALESCE(reviews.title, '') AS title, reviews.content, reviews.helpful, reviews.verified,
			reviews.created_at, reviews.updated_at,
			COALESCE(users.name, '') AS user_name, COALESCE(users.image, '') AS user_image`).
		Joins("LEFT JOIN users ON users.id = reviews.user_id")
}

// hasPurchased reports whether buyerID has a paid order containing productID.
func (s *ReviewService) hasPurchased(ctx context.Context, buyerID, productID string) (bool, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("order_lines").
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("orders.buyer_id = ? AND orders.payment_status = ? AND order_lines.product_id = ?",
			buyerID, models.PaymentStatusPaid, productID).
		Limit(1).
		Pluck("order_lines.id", &ids).Error
	return len(ids) > 0, err
}

func (s *ReviewService) hasReviewed(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (s *ReviewService) productExists(ctx context.Context, productID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return wrapError(KindUnexpected, "Failed to fetch product", err)
	}
	if count == 0 {
		return errProductNotFound
	}
	return nil
}

func validateReview(in *ReviewInput) error {
	if in.Rating < 1 || in.Rating > 5 {
		return errReviewRatingRange
	}
	in.Content = strings.TrimSpace(in.Content)
	if len([]rune(in.Content)) < minReviewContent {
		return errReviewContent
	}
	in.Title = strings.TrimSpace(in.Title)
	return nil
}

func (r reviewRow) view() ReviewView {
	return ReviewView{
		ID:        r.ID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
		Helpful:   r.Helpful,
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		User:      ReviewAuthor{ID: r.UserID, Name: r.UserName, Image: r.UserImage},
	}
}
