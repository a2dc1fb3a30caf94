package services

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Kariqs/amexan-market/models"
	"github.com/Kariqs/amexan-market/payment"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	SellerID  string `json:"sellerId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Price     string `json:"price" binding:"required,decimal"`
	Variant   string `json:"variant"`
}

type CreateOrderInput struct {
	Name            string           `json:"name" binding:"required"`
	Email           string           `json:"email" binding:"required,email"`
	Phone           string           `json:"phone" binding:"required"`
	ShippingAddress string           `json:"shippingAddress" binding:"required"`
	City            string           `json:"city" binding:"required"`
	State           string           `json:"state" binding:"required"`
	Zip             string           `json:"zip" binding:"required"`
	Country         string           `json:"country" binding:"required"`
	Subtotal        string           `json:"subtotal" binding:"required,decimal"`
	Shipping        string           `json:"shipping" binding:"omitempty,decimal"`
	Total           string           `json:"total" binding:"required,decimal"`
	Notes           string           `json:"notes"`
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type CreatedOrder struct {
	OrderID          string
	Status           string
	Total            string
	AuthorizationURL string
	Reference        string
}

type Confirmation struct {
	OrderID string
	// AlreadyPaid is set when a replayed callback found the order already settled.
	AlreadyPaid bool
}

type UpdateOrderInput struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

type OrderServiceOption func(*OrderService)

func WithDispatcher(d EventDispatcher) OrderServiceOption {
	return func(s *OrderService) { s.dispatcher = d }
}

func WithMailer(m Mailer) OrderServiceOption {
	return func(s *OrderService) { s.mailer = m }
}

func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

// OrderService owns the write path: cart validation, payment initialization, the atomic
// order insert, and payment reconciliation.
type OrderService struct {
	db          *gorm.DB
	catalog     CatalogLookup
	gateway     payment.Gateway
	dispatcher  EventDispatcher
	mailer      Mailer
	callbackURL string
	now         func() time.Time
}

func NewOrderService(db *gorm.DB, catalog CatalogLookup, gateway payment.Gateway, publicURL string, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		db:          db,
		catalog:     catalog,
		gateway:     gateway,
		dispatcher:  nopDispatcher{},
		mailer:      nopMailer{},
		callbackURL: strings.TrimRight(publicURL, "/") + "/order/confirmation",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) CreateOrder(ctx context.Context, caller *models.Caller, in CreateOrderInput) (*CreatedOrder, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}
	if len(in.Items) == 0 {
		return nil, newError(KindInvalidInput, "At least one item is required")
	}

	lines, subtotal, err := buildLines(in.Items)
	if err != nil {
		return nil, err
	}
	subtotal, shipping, total, err := checkAmounts(in, subtotal)
	if err != nil {
		return nil, err
	}

	if err := s.validateCatalog(ctx, in.Items); err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	email := caller.Email
	if email == "" {
		email = in.Email
	}
	metadata := map[string]string{"buyerId": caller.ID, "orderId": orderID}
	amountMinor := toMinorUnits(total)

	if err := s.openAttempt(ctx, orderID, caller.ID, email, amountMinor, metadata); err != nil {
		return nil, err
	}

	session, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:       email,
		AmountMinor: amountMinor,
		CallbackURL: s.callbackURL + "?orderId=" + url.QueryEscape(orderID),
		Metadata:    metadata,
	})
	if err == nil && (session == nil || session.AuthorizationURL == "") {
		err = errors.New("gateway returned no authorization url")
	}
	if err != nil {
		log.WithFields(log.Fields{"orderId": orderID, "buyerId": caller.ID}).WithError(err).Warn("payment initialization failed")
		s.closeAttempt(ctx, orderID, map[string]any{"status": models.AttemptFailed, "failure_reason": err.Error()})
		return nil, wrapError(KindPaymentInitFailed, "Failed to initialize payment", err)
	}
	s.closeAttempt(ctx, orderID, map[string]any{
		"status":      models.AttemptInitialized,
		"reference":   session.Reference,
		"access_code": session.AccessCode,
	})

	now := s.now().UTC()
	order := models.Order{
		ID:                orderID,
		BuyerID:           caller.ID,
		Status:            models.OrderStatusPending,
		PaymentStatus:     models.PaymentStatusPending,
		Subtotal:          subtotal,
		Shipping:          shipping,
		Total:             total,
		ShippingAddress:   in.ShippingAddress,
		City:              in.City,
		State:             in.State,
		Zip:               in.Zip,
		Country:           in.Country,
		Phone:             in.Phone,
		Email:             in.Email,
		Name:              in.Name,
		PaymentReference:  session.Reference,
		PaymentAccessCode: session.AccessCode,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for i := range lines {
		lines[i].ID = uuid.NewString()
		lines[i].OrderID = orderID
		lines[i].Position = i
		lines[i].CreatedAt = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return errors.Wrap(err, "insert order lines")
		}
		return tx.Model(&models.PaymentAttempt{}).
			Where("id = ?", orderID).
			Updates(map[string]any{"status": models.AttemptBound, "updated_at": now}).Error
	})
	if err != nil {
		// The gateway transaction exists but the order does not; leave a trail to reconcile.
		log.WithFields(log.Fields{
			"orderId":   orderID,
			"buyerId":   caller.ID,
			"reference": session.Reference,
		}).WithError(err).Error("order persistence failed after payment initialization")
		s.closeAttempt(ctx, orderID, map[string]any{"status": models.AttemptOrphaned, "failure_reason": err.Error()})
		return nil, wrapError(KindPersistenceFailure, "Failed to place order", err)
	}

	s.dispatch(ctx, OrderCreated{
		OrderID:    orderID,
		BuyerID:    caller.ID,
		SellerIDs:  sellerIDs(lines),
		Total:      formatMoney(total),
		Reference:  session.Reference,
		OccurredAt: now,
	})

	return &CreatedOrder{
		OrderID:          orderID,
		Status:           order.Status,
		Total:            formatMoney(total),
		AuthorizationURL: session.AuthorizationURL,
		Reference:        session.Reference,
	}, nil
}

// ConfirmPayment verifies reference with the gateway and settles the order. Replays are
// harmless: only a pending order transitions to paid, and side effects follow only that
// transition.
func (s *OrderService) ConfirmPayment(ctx context.Context, reference, orderID string) (*Confirmation, error) {
	if reference == "" {
		return nil, newError(KindInvalidInput, "Missing reference")
	}
	if orderID == "" {
		return nil, newError(KindInvalidInput, "Missing orderId")
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to verify payment", err)
	}
	if !verification.Succeeded() {
		log.WithFields(log.Fields{"orderId": orderID, "reference": reference, "status": verification.Status}).Info("payment verification failed")
		return nil, newError(KindPaymentVerificationFailed, "Payment verification failed")
	}

	var order models.Order
	transitioned := false
	now := s.now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Select("id", "buyer_id", "payment_status", "payment_reference", "email", "name", "total").
			Where("id = ?", orderID).
			Take(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.PaymentReference != reference {
			return newError(KindInvalidInput, "Payment reference does not match order")
		}
		if expected := toMinorUnits(order.Total); verification.AmountMinor != expected {
			log.WithFields(log.Fields{
				"orderId":  orderID,
				"expected": expected,
				"paid":     verification.AmountMinor,
			}).Warn("verified amount does not match order total")
			return newError(KindPaymentVerificationFailed, "Payment amount does not match order")
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
			Updates(map[string]any{"payment_status": models.PaymentStatusPaid, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		transitioned = res.RowsAffected == 1
		if !transitioned {
			return nil
		}
		return tx.Model(&models.PaymentAttempt{}).
			Where("id = ?", orderID).
			Updates(map[string]any{"status": models.AttemptCompleted, "updated_at": now}).Error
	})
	if err != nil {
		return nil, asServiceError(err, "Failed to confirm payment")
	}

	if transitioned {
		log.WithFields(log.Fields{"orderId": orderID, "reference": reference}).Info("payment verified, order marked paid")
		s.dispatch(ctx, OrderPaid{OrderID: orderID, BuyerID: order.BuyerID, Reference: reference, OccurredAt: now})
		if order.Email != "" {
			if err := s.mailer.SendOrderConfirmation(ctx, order.Email, order.Name, orderID, formatMoney(order.Total)); err != nil {
				log.WithField("orderId", orderID).WithError(err).Warn("failed to send order confirmation email")
			}
		}
	}

	return &Confirmation{OrderID: orderID, AlreadyPaid: !transitioned}, nil
}

// UpdateOrder changes the fulfillment status and/or payment status of an order.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, in UpdateOrderInput) error {
	updates := map[string]any{}
	if in.Status != nil {
		if !models.IsOrderStatus(*in.Status) {
			return newError(KindInvalidInput, "Invalid order status")
		}
		updates["status"] = *in.Status
	}
	if in.PaymentStatus != nil {
		if !models.IsPaymentStatus(*in.PaymentStatus) {
			return newError(KindInvalidInput, "Invalid payment status")
		}
		updates["payment_status"] = *in.PaymentStatus
	}
	if len(updates) == 0 {
		return newError(KindInvalidInput, "Nothing to update")
	}
	updates["updated_at"] = s.now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOrderNotFound
		}
		return tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error
	})
	if err != nil {
		return asServiceError(err, "Failed to update order")
	}
	return nil
}

// DeleteOrder removes the order together with its lines.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", orderID).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		return asServiceError(err, "Failed to delete order")
	}
	return nil
}

func buildLines(items []OrderItemInput) ([]models.OrderLine, decimal.Decimal, error) {
	lines := make([]models.OrderLine, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		if item.ProductID == "" || item.SellerID == "" {
			return nil, decimal.Zero, newError(KindInvalidInput, "Product ID and seller ID are required")
		}
		if item.Quantity <= 0 {
			return nil, decimal.Zero, newError(KindInvalidInput, "Quantity must be positive")
		}
		price, err := parseMoney("price", item.Price)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if err := checkMoneyRange("line total", lineTotal); err != nil {
			return nil, decimal.Zero, err
		}
		subtotal = subtotal.Add(lineTotal)
		if err := checkMoneyRange("subtotal", subtotal); err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, models.OrderLine{
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Quantity:  item.Quantity,
			Price:     price,
			Total:     lineTotal,
			Variant:   item.Variant,
		})
	}
	return lines, subtotal, nil
}

// checkAmounts compares the submitted amounts with the server computation and returns the
// values to persist.
func checkAmounts(in CreateOrderInput, computed decimal.Decimal) (subtotal, shipping, total decimal.Decimal, err error) {
	declaredSubtotal, err := parseMoney("subtotal", in.Subtotal)
	if err != nil {
		return
	}
	shipping = decimal.Zero
	if in.Shipping != "" {
		if shipping, err = parseMoney("shipping", in.Shipping); err != nil {
			return
		}
	}
	declaredTotal, err := parseMoney("total", in.Total)
	if err != nil {
		return
	}

	if !declaredSubtotal.Equal(computed) {
		err = newError(KindInvalidInput, "Subtotal does not match the items")
		return
	}
	total = computed.Add(shipping)
	if err = checkMoneyRange("total", total); err != nil {
		return
	}
	if !declaredTotal.Equal(total) {
		err = newError(KindInvalidInput, "Total does not match subtotal and shipping")
		return
	}
	return computed, shipping, total, nil
}

// validateCatalog rejects the cart when any (product, seller) pair is not a live listing.
func (s *OrderService) validateCatalog(ctx context.Context, items []OrderItemInput) error {
	pairs := make([]ProductSeller, 0, len(items))
	seen := make(map[ProductSeller]struct{}, len(items))
	for _, item := range items {
		p := ProductSeller{ProductID: item.ProductID, SellerID: item.SellerID}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	entries, err := s.catalog.ValidPairs(ctx, pairs)
	if err != nil {
		return wrapError(KindUnexpected, "Failed to place order", err)
	}
	found := make(map[ProductSeller]struct{}, len(entries))
	for _, e := range entries {
		found[ProductSeller{ProductID: e.ID, SellerID: e.SellerID}] = struct{}{}
	}

	missingSet := map[string]struct{}{}
	for _, p := range pairs {
		if _, ok := found[p]; !ok {
			missingSet[p.ProductID] = struct{}{}
		}
	}
	if len(missingSet) == 0 {
		return nil
	}
	missing := make([]string, 0, len(missingSet))
	for id := range missingSet {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	return missingProductsError(missing)
}

func (s *OrderService) openAttempt(ctx context.Context, orderID, buyerID, email string, amountMinor int64, metadata map[string]string) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return wrapError(KindUnexpected, "Failed to place order", err)
	}
	attempt := models.PaymentAttempt{
		ID:          orderID,
		BuyerID:     buyerID,
		Email:       email,
		AmountMinor: amountMinor,
		Status:      models.AttemptInitializing,
		Metadata:    datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return wrapError(KindPersistenceFailure, "Failed to place order", err)
	}
	return nil
}

// closeAttempt records the outcome of an attempt. It must run even if the request context
// was cancelled, so it detaches from ctx.
func (s *OrderService) closeAttempt(ctx context.Context, orderID string, updates map[string]any) {
	updates["updated_at"] = s.now().UTC()
	err := s.db.WithContext(context.WithoutCancel(ctx)).
		Model(&models.PaymentAttempt{}).
		Where("id = ?", orderID).
		Updates(updates).Error
	if err != nil {
		log.WithFields(log.Fields{"orderId": orderID, "updates": updates}).WithError(err).Error("failed to record payment attempt")
	}
}

func (s *OrderService) dispatch(ctx context.Context, event Event) {
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		log.WithField("event", event.Type()).WithError(err).Warn("failed to dispatch event")
	}
}

func sellerIDs(lines []models.OrderLine) []string {
	seen := map[string]struct{}{}
	ids := []string{}
	for _, l := range lines {
		if _, ok := seen[l.SellerID]; ok {
			continue
		}
		seen[l.SellerID] = struct{}{}
		ids = append(ids, l.SellerID)
	}
	return ids
}

// asServiceError passes service errors through and hides everything else behind message.
func asServiceError(err error, message string) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrapError(KindUnexpected, message, err)
}
