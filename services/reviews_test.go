package services_test

import (
	"context"
	"testing"

	"github.com/Kariqs/amexan-market/models"
	"github.com/Kariqs/amexan-market/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buyPaid gives caller a paid order containing prod-a1.
func (h *harness) buyPaid(t *testing.T, caller *models.Caller) {
	t.Helper()
	h.markPaid(t, h.placeOrder(t, caller, otherCart()))
}

func productRating(t *testing.T, h *harness, productID string) (string, int) {
	t.Helper()
	var p models.Product
	require.NoError(t, h.db.Where("id = ?", productID).Take(&p).Error)
	return p.Rating.StringFixed(2), p.ReviewCount
}

func review(rating int) services.ReviewInput {
	return services.ReviewInput{Rating: rating, Title: "Good", Content: "Arrived on time and well packed"}
}

func TestCreateReview(t *testing.T) {
	t.Run("Success on a paid purchase", func(t *testing.T) {
		h := newHarness(t)
		h.buyPaid(t, buyer)
		reviews := services.NewReviewService(h.db, h.dispatcher)

		r, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(5))

		require.NoError(t, err)
		assert.True(t, r.Verified)
		assert.Equal(t, buyer.ID, r.UserID)
		rating, count := productRating(t, h, "prod-a1")
		assert.Equal(t, "5.00", rating)
		assert.Equal(t, 1, count)
		assert.Len(t, h.dispatcher.ofType("review.aggregated"), 1)
	})

	t.Run("Fail without purchase", func(t *testing.T) {
		h := newHarness(t)
		reviews := services.NewReviewService(h.db, h.dispatcher)

		_, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(4))

		requireKind(t, err, services.KindValidationFailed)
	})

	t.Run("Fail when the purchase is unpaid", func(t *testing.T) {
		h := newHarness(t)
		h.placeOrder(t, buyer, otherCart())
		reviews := services.NewReviewService(h.db, h.dispatcher)

		_, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(4))

		requireKind(t, err, services.KindValidationFailed)
		assert.Zero(t, countRows(t, h.db, &models.Review{}))
	})

	t.Run("Fail on second review", func(t *testing.T) {
		h := newHarness(t)
		h.buyPaid(t, buyer)
		reviews := services.NewReviewService(h.db, h.dispatcher)
		_, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(4))
		require.NoError(t, err)

		_, err = reviews.CreateReview(context.Background(), buyer, "prod-a1", review(2))

		requireKind(t, err, services.KindValidationFailed)
		assert.EqualError(t, err, "validation_failed: Already reviewed this product")
		assert.Equal(t, int64(1), countRows(t, h.db, &models.Review{}))
	})

	t.Run("Fail on invalid input", func(t *testing.T) {
		h := newHarness(t)
		h.buyPaid(t, buyer)
		reviews := services.NewReviewService(h.db, h.dispatcher)

		_, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(6))
		requireKind(t, err, services.KindInvalidInput)

		_, err = reviews.CreateReview(context.Background(), buyer, "prod-a1", services.ReviewInput{Rating: 3, Content: " ok  "})
		requireKind(t, err, services.KindInvalidInput)
	})

	t.Run("Fail on unknown product", func(t *testing.T) {
		h := newHarness(t)
		reviews := services.NewReviewService(h.db, h.dispatcher)

		_, err := reviews.CreateReview(context.Background(), buyer, "missing", review(3))

		requireKind(t, err, services.KindNotFound)
	})
}

func TestReviewAggregate(t *testing.T) {
	h := newHarness(t)
	reviewers := []*models.Caller{buyer, other, sellerC}
	for _, c := range reviewers {
		h.buyPaid(t, c)
	}
	reviews := services.NewReviewService(h.db, h.dispatcher)

	var ids []string
	for i, rating := range []int{5, 3, 4} {
		r, err := reviews.CreateReview(context.Background(), reviewers[i], "prod-a1", review(rating))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	rating, count := productRating(t, h, "prod-a1")
	assert.Equal(t, "4.00", rating)
	assert.Equal(t, 3, count)

	_, err := reviews.UpdateReview(context.Background(), buyer, ids[0], review(1))
	require.NoError(t, err)
	rating, count = productRating(t, h, "prod-a1")
	assert.Equal(t, "2.67", rating)
	assert.Equal(t, 3, count)

	for i, id := range ids {
		require.NoError(t, reviews.DeleteReview(context.Background(), reviewers[i], id))
	}
	rating, count = productRating(t, h, "prod-a1")
	assert.Equal(t, "0.00", rating)
	assert.Equal(t, 0, count)
}

func TestReviewOwnership(t *testing.T) {
	h := newHarness(t)
	h.buyPaid(t, buyer)
	reviews := services.NewReviewService(h.db, h.dispatcher)
	r, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(4))
	require.NoError(t, err)

	t.Run("Another user cannot update", func(t *testing.T) {
		_, err := reviews.UpdateReview(context.Background(), other, r.ID, review(1))
		assert.ErrorIs(t, err, services.ErrReviewNotFound)
	})

	t.Run("Another user cannot delete", func(t *testing.T) {
		err := reviews.DeleteReview(context.Background(), other, r.ID)
		assert.ErrorIs(t, err, services.ErrReviewNotFound)
		assert.Equal(t, int64(1), countRows(t, h.db, &models.Review{}))
	})
}

func TestReviewReads(t *testing.T) {
	h := newHarness(t)
	h.buyPaid(t, buyer)
	h.buyPaid(t, other)
	reviews := services.NewReviewService(h.db, h.dispatcher)
	mine, err := reviews.CreateReview(context.Background(), buyer, "prod-a1", review(5))
	require.NoError(t, err)
	_, err = reviews.CreateReview(context.Background(), other, "prod-a1", review(3))
	require.NoError(t, err)

	t.Run("List joins the author", func(t *testing.T) {
		views, meta, err := reviews.ListReviews(context.Background(), "prod-a1", services.Pagination{})

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, int64(2), meta.Total)
		assert.Equal(t, 10, meta.Limit)
		names := []string{views[0].User.Name, views[1].User.Name}
		assert.ElementsMatch(t, []string{"Ada Buyer", "Other Buyer"}, names)
	})

	t.Run("My review", func(t *testing.T) {
		view, err := reviews.MyReview(context.Background(), buyer, "prod-a1")
		require.NoError(t, err)
		assert.Equal(t, mine.ID, view.ID)

		_, err = reviews.MyReview(context.Background(), sellerC, "prod-a1")
		assert.ErrorIs(t, err, services.ErrReviewNotFound)
	})

	t.Run("Mark helpful", func(t *testing.T) {
		require.NoError(t, reviews.MarkHelpful(context.Background(), other, mine.ID))
		require.NoError(t, reviews.MarkHelpful(context.Background(), sellerC, mine.ID))

		view, err := reviews.MyReview(context.Background(), buyer, "prod-a1")
		require.NoError(t, err)
		assert.Equal(t, 2, view.Helpful)

		err = reviews.MarkHelpful(context.Background(), other, "missing")
		assert.ErrorIs(t, err, services.ErrReviewNotFound)
	})

	t.Run("Eligibility", func(t *testing.T) {
		e, err := reviews.CanReview(context.Background(), buyer, "prod-a1")
		require.NoError(t, err)
		assert.False(t, e.CanReview)
		assert.True(t, e.HasReview)

		e, err = reviews.CanReview(context.Background(), sellerC, "prod-a1")
		require.NoError(t, err)
		assert.False(t, e.CanReview)
		assert.Equal(t, "Must purchase product to review", e.Reason)

		e, err = reviews.CanReview(context.Background(), nil, "prod-a1")
		require.NoError(t, err)
		assert.False(t, e.CanReview)
	})
}
