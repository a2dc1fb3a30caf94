package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Kariqs/amexan-market/initializers"
	"github.com/Kariqs/amexan-market/models"
	"github.com/Kariqs/amexan-market/payment"
	"github.com/Kariqs/amexan-market/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	buyer   = &models.Caller{ID: "buyer-1", Email: "buyer@example.com", Role: models.RoleUser}
	other   = &models.Caller{ID: "buyer-2", Email: "other@example.com", Role: models.RoleUser}
	sellerA = &models.Caller{ID: "seller-a", Email: "a@example.com", Role: models.RoleSeller}
	sellerB = &models.Caller{ID: "seller-b", Email: "b@example.com", Role: models.RoleSeller}
	sellerC = &models.Caller{ID: "seller-c", Email: "c@example.com", Role: models.RoleSeller}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "market.db")
	db, err := gorm.Open(sqlite.Open(dsn), initializers.GormConfig())
	require.NoError(t, err)
	require.NoError(t, initializers.SyncDatabase(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	seed(t, db)
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []models.User{
		{ID: buyer.ID, Name: "Ada Buyer", Email: buyer.Email, Role: models.RoleUser},
		{ID: other.ID, Name: "Other Buyer", Email: other.Email, Role: models.RoleUser},
		{ID: sellerA.ID, Name: "Seller A", Email: sellerA.Email, Role: models.RoleSeller},
		{ID: sellerB.ID, Name: "Seller B", Email: sellerB.Email, Role: models.RoleSeller},
		{ID: sellerC.ID, Name: "Seller C", Email: sellerC.Email, Role: models.RoleSeller},
	}
	require.NoError(t, db.Create(&users).Error)

	products := []models.Product{
		{ID: "prod-a1", Name: "Maize Flour", Description: "2kg bag", Price: decimal.RequireFromString("10.00"), Unit: "bag", Brand: "Jogoo", Sku: "A1", SellerID: sellerA.ID, InStock: true, CreatedAt: now},
		{ID: "prod-a2", Name: "Rice", Description: "Pishori", Price: decimal.RequireFromString("10.00"), Unit: "kg", Brand: "Mwea", Sku: "A2", SellerID: sellerA.ID, InStock: true, CreatedAt: now},
		{ID: "prod-b1", Name: "Cooking Oil", Description: "1L", Price: decimal.RequireFromString("5.00"), Unit: "bottle", Brand: "Elianto", Sku: "B1", SellerID: sellerB.ID, InStock: true, CreatedAt: now},
	}
	require.NoError(t, db.Omit("Images").Create(&products).Error)

	images := []models.ProductImage{
		{ID: "img-a1", ProductID: "prod-a1", Url: "https://cdn.example.com/a1.jpg", IsPrimary: true, CreatedAt: now},
		{ID: "img-a1-2", ProductID: "prod-a1", Url: "https://cdn.example.com/a1-side.jpg", CreatedAt: now},
	}
	require.NoError(t, db.Create(&images).Error)
}

// abCart is two lines from seller A and one from seller B, shipping 0.
func abCart() services.CreateOrderInput {
	return services.CreateOrderInput{
		Name:            "Ada Buyer",
		Email:           "buyer@example.com",
		Phone:           "0700000000",
		ShippingAddress: "1 Moi Avenue",
		City:            "Nairobi",
		State:           "Nairobi",
		Zip:             "00100",
		Country:         "KE",
		Subtotal:        "25.00",
		Shipping:        "0",
		Total:           "25.00",
		Items: []services.OrderItemInput{
			{ProductID: "prod-a1", SellerID: sellerA.ID, Quantity: 1, Price: "10.00"},
			{ProductID: "prod-a2", SellerID: sellerA.ID, Quantity: 1, Price: "10.00"},
			{ProductID: "prod-b1", SellerID: sellerB.ID, Quantity: 1, Price: "5.00"},
		},
	}
}

type fakeGateway struct {
	mu           sync.Mutex
	initErr      error
	verifyErr    error
	verifyStatus string
	initCalls    int
	verifyCalls  int
	lastRequest  payment.InitializeRequest
	amounts      map[string]int64

	// paidAmount overrides the amount Verify reports for every reference.
	paidAmount *int64
}

func (g *fakeGateway) Initialize(_ context.Context, req payment.InitializeRequest) (*payment.Initialization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	g.lastRequest = req
	if g.initErr != nil {
		return nil, g.initErr
	}
	ref := fmt.Sprintf("ref-%d", g.initCalls)
	if g.amounts == nil {
		g.amounts = map[string]int64{}
	}
	g.amounts[ref] = req.AmountMinor
	return &payment.Initialization{
		AuthorizationURL: "https://checkout.example.com/" + ref,
		Reference:        ref,
		AccessCode:       "access-" + ref,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*payment.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	status := g.verifyStatus
	if status == "" {
		status = payment.StatusSuccess
	}
	amount := g.amounts[reference]
	if g.paidAmount != nil {
		amount = *g.paidAmount
	}
	return &payment.Verification{Status: status, Reference: reference, AmountMinor: amount}, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []services.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event services.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) ofType(typ string) []services.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []services.Event
	for _, e := range d.events {
		if e.Type() == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendOrderConfirmation(_ context.Context, to, _, orderID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+":"+orderID)
	return nil
}

type harness struct {
	db         *gorm.DB
	gateway    *fakeGateway
	dispatcher *recordingDispatcher
	mailer     *fakeMailer
	orders     *services.OrderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	h := &harness{
		db:         db,
		gateway:    &fakeGateway{},
		dispatcher: &recordingDispatcher{},
		mailer:     &fakeMailer{},
	}
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h.orders = services.NewOrderService(db, services.NewCatalog(db), h.gateway, "https://api.example.com/",
		services.WithDispatcher(h.dispatcher),
		services.WithMailer(h.mailer),
		services.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
	return h
}

// placeOrder creates an order for caller and fails the test on error.
func (h *harness) placeOrder(t *testing.T, caller *models.Caller, in services.CreateOrderInput) *services.CreatedOrder {
	t.Helper()
	created, err := h.orders.CreateOrder(context.Background(), caller, in)
	require.NoError(t, err)
	return created
}

// markPaid settles an order through the confirmation path.
func (h *harness) markPaid(t *testing.T, created *services.CreatedOrder) {
	t.Helper()
	_, err := h.orders.ConfirmPayment(context.Background(), created.Reference, created.OrderID)
	require.NoError(t, err)
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func requireKind(t *testing.T, err error, kind services.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, services.KindOf(err), "error: %v", err)
}
