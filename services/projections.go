package services

import (
	"context"
	"time"

	"github.com/Kariqs/amexan-market/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type PartyView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ProductSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Unit        string `json:"unit"`
	Brand       string `json:"brand"`
}

type LineView struct {
	ID           string         `json:"id"`
	ProductID    string         `json:"productId"`
	SellerID     string         `json:"sellerId"`
	Quantity     int            `json:"quantity"`
	Price        string         `json:"price"`
	Total        string         `json:"total"`
	Variant      string         `json:"variant,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	Product      ProductSummary `json:"product"`
	ProductImage string         `json:"productImage,omitempty"`
	Seller       *PartyView     `json:"seller,omitempty"`
}

type OrderHeaderView struct {
	ID               string    `json:"id"`
	BuyerID          string    `json:"buyerId"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"paymentStatus"`
	Subtotal         string    `json:"subtotal"`
	Shipping         string    `json:"shipping"`
	Total            string    `json:"total"`
	ShippingAddress  string    `json:"shippingAddress"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	Zip              string    `json:"zip"`
	Country          string    `json:"country"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Notes            string    `json:"notes,omitempty"`
	PaymentReference string    `json:"paymentReference,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type OrderView struct {
	OrderHeaderView
	Customer *PartyView `json:"customer,omitempty"`
	Items    []LineView `json:"items"`
}

// SellerOrderView is an order reduced to one seller's lines. SellerTotal and
// SellerItemCount are recomputed from those lines, never read from the order.
type SellerOrderView struct {
	OrderHeaderView
	Customer        *PartyView `json:"customer,omitempty"`
	Items           []LineView `json:"items"`
	SellerTotal     string     `json:"sellerTotal"`
	SellerItemCount int        `json:"sellerItemCount"`
	IsPartialOrder  bool       `json:"isPartialOrder,omitempty"`
}

type BuyerStats struct {
	TotalOrders     int64  `json:"totalOrders"`
	TotalSpent      string `json:"totalSpent"`
	PendingOrders   int64  `json:"pendingOrders"`
	CompletedOrders int64  `json:"completedOrders"`
}

type AdminStats struct {
	TotalOrders       int64  `json:"totalOrders"`
	PaidOrders        int64  `json:"paidOrders"`
	PendingOrders     int64  `json:"pendingOrders"`
	UndeliveredOrders int64  `json:"undeliveredOrders"`
	TotalRevenue      string `json:"totalRevenue"`
}

// lineRow is one order line with its product and seller denormalized.
type lineRow struct {
	ID                 string
	OrderID            string
	ProductID          string
	SellerID           string
	Quantity           int
	Price              decimal.Decimal
	Total              decimal.Decimal
	Variant            string
	CreatedAt          time.Time
	ProductName        string
	ProductDescription string
	ProductPrice       decimal.Decimal
	ProductUnit        string
	ProductBrand       string
	ProductImage       string
	SellerName         string
	SellerEmail        string
}

// ProjectionService reads the shared order tables and shapes them per audience. Buyer and
// seller reads answer NotFound for anything the caller does not own.
type ProjectionService struct {
	db *gorm.DB
}

func NewProjectionService(db *gorm.DB) *ProjectionService {
	return &ProjectionService{db: db}
}

func (s *ProjectionService) lineQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("order_lines").
		Select(`order_lines.id, order_lines.order_id, order_lines.product_id, order_lines.seller_id,
			order_lines.quantity, order_lines.price, order_lines.total,
			COALESCE(order_lines.variant, '') AS variant, order_lines.created_at,
			COALESCE(products.name, '') AS product_name,
			COALESCE(products.description, '') AS product_description,
			COALESCE(products.price, 0) AS product_price,
			COALESCE(products.unit, '') AS product_unit,
			COALESCE(products.brand, '') AS product_brand,
			COALESCE((SELECT pi.url FROM product_images pi
				WHERE pi.product_id = order_lines.product_id AND pi.is_primary = ?
				ORDER BY pi.created_at LIMIT 1), '') AS product_image,
			COALESCE(sellers.name, '') AS seller_name,
			COALESCE(sellers.email, '') AS seller_email`, true).
		Joins("LEFT JOIN products ON products.id = order_lines.product_id").
		Joins("LEFT JOIN users AS sellers ON sellers.id = order_lines.seller_id").
		Order("order_lines.created_at ASC, order_lines.position ASC")
}

func (s *ProjectionService) BuyerOrder(ctx context.Context, caller *models.Caller, orderID string) (*OrderView, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", orderID, caller.ID).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch order", err)
	}

	var rows []lineRow
	if err := s.lineQuery(ctx).Where("order_lines.order_id = ?", orderID).Scan(&rows).Error; err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch order", err)
	}

	view := &OrderView{OrderHeaderView: headerView(order), Items: make([]LineView, 0, len(rows))}
	for _, r := range rows {
		view.Items = append(view.Items, r.view(false, false))
	}
	return view, nil
}

func (s *ProjectionService) BuyerOrders(ctx context.Context, caller *models.Caller, p Pagination) ([]OrderView, PageMeta, error) {
	if caller == nil || caller.ID == "" {
		return nil, PageMeta{}, ErrUnauthenticated
	}
	p = p.normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("buyer_id = ?", caller.ID).Count(&total).Error; err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("buyer_id = ?", caller.ID).
		Order("created_at DESC, id DESC").
		Limit(p.Limit).Offset(p.offset()).
		Find(&orders).Error
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}

	linesByOrder, err := s.linesFor(ctx, orderIDs(orders), "")
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{OrderHeaderView: headerView(o), Items: []LineView{}}
		for _, r := range linesByOrder[o.ID] {
			v.Items = append(v.Items, r.view(false, false))
		}
		views = append(views, v)
	}
	return views, newPageMeta(p, total), nil
}

// SellerOrders pages over the distinct orders that contain at least one of the caller's
// lines, newest first, then loads just that page with the lines filtered to the caller.
func (s *ProjectionService) SellerOrders(ctx context.Context, caller *models.Caller, p Pagination) ([]SellerOrderView, PageMeta, error) {
	if caller == nil || caller.ID == "" {
		return nil, PageMeta{}, ErrUnauthenticated
	}
	p = p.normalize()

	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("seller_id = ?", caller.ID).
		Distinct("order_id").
		Count(&total).Error
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}

	var page []struct {
		OrderID   string
		CreatedAt time.Time
	}
	err = s.db.WithContext(ctx).
		Table("order_lines").
		Select("order_lines.order_id, orders.created_at").
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("order_lines.seller_id = ?", caller.ID).
		Group("order_lines.order_id, orders.created_at").
		Order("orders.created_at DESC, order_lines.order_id DESC").
		Limit(p.Limit).Offset(p.offset()).
		Scan(&page).Error
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}
	if len(page) == 0 {
		return []SellerOrderView{}, newPageMeta(p, total), nil
	}

	ids := make([]string, 0, len(page))
	for _, row := range page {
		ids = append(ids, row.OrderID)
	}

	var orders []models.Order
	err = s.db.WithContext(ctx).
		Preload("Buyer").
		Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}

	linesByOrder, err := s.linesFor(ctx, ids, caller.ID)
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Failed to fetch orders", err)
	}

	views := make([]SellerOrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, sellerView(o, linesByOrder[o.ID], false))
	}
	return views, newPageMeta(p, total), nil
}

func (s *ProjectionService) SellerOrderDetail(ctx context.Context, caller *models.Caller, orderID string) (*SellerOrderView, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	var owned []string
	err := s.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("order_id = ? AND seller_id = ?", orderID, caller.ID).
		Limit(1).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch order", err)
	}
	if len(owned) == 0 {
		return nil, ErrOrderNotFound
	}

	var order models.Order
	err = s.db.WithContext(ctx).Preload("Buyer").Where("id = ?", orderID).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch order", err)
	}

	linesByOrder, err := s.linesFor(ctx, []string{orderID}, caller.ID)
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch order", err)
	}

	view := sellerView(order, linesByOrder[orderID], true)
	return &view, nil
}

// AdminOrders lists every order with all lines and the seller of each line. The page and
// the total count run concurrently over the same filter.
func (s *ProjectionService) AdminOrders(ctx context.Context, f OrderFilter) ([]OrderView, PageMeta, error) {
	f.Pagination = f.Pagination.normalize()

	var (
		total  int64
		orders []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return applyOrderFilter(s.db.WithContext(gctx).Model(&models.Order{}), f).Count(&total).Error
	})
	g.Go(func() error {
		return applyOrderFilter(s.db.WithContext(gctx).Model(&models.Order{}), f).
			Preload("Buyer").
			Order("orders.created_at DESC, orders.id DESC").
			Limit(f.Limit).Offset(f.offset()).
			Find(&orders).Error
	})
	if err := g.Wait(); err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Unable to fetch orders", err)
	}

	linesByOrder, err := s.linesFor(ctx, orderIDs(orders), "")
	if err != nil {
		return nil, PageMeta{}, wrapError(KindUnexpected, "Unable to fetch orders", err)
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{OrderHeaderView: headerView(o), Customer: partyOf(o.Buyer), Items: []LineView{}}
		v.PaymentReference = o.PaymentReference
		for _, r := range linesByOrder[o.ID] {
			v.Items = append(v.Items, r.view(true, false))
		}
		views = append(views, v)
	}
	return views, newPageMeta(f.Pagination, total), nil
}

func (s *ProjectionService) BuyerStats(ctx context.Context, caller *models.Caller) (*BuyerStats, error) {
	if caller == nil || caller.ID == "" {
		return nil, ErrUnauthenticated
	}

	var row struct {
		TotalOrders     int64
		TotalSpent      decimal.Decimal
		PendingOrders   int64
		CompletedOrders int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(total), 0) AS total_spent,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_orders`,
			models.OrderStatusPending, models.OrderStatusCompleted).
		Where("buyer_id = ?", caller.ID).
		Scan(&row).Error
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch purchase statistics", err)
	}

	return &BuyerStats{
		TotalOrders:     row.TotalOrders,
		TotalSpent:      formatMoney(row.TotalSpent),
		PendingOrders:   row.PendingOrders,
		CompletedOrders: row.CompletedOrders,
	}, nil
}

func (s *ProjectionService) AdminStats(ctx context.Context) (*AdminStats, error) {
	var row struct {
		TotalOrders       int64
		PaidOrders        int64
		PendingOrders     int64
		UndeliveredOrders int64
		TotalRevenue      decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(CASE WHEN payment_status = ? THEN 1 ELSE 0 END), 0) AS paid_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders,
			COALESCE(SUM(CASE WHEN status <> ? THEN 1 ELSE 0 END), 0) AS undelivered_orders,
			COALESCE(SUM(CASE WHEN payment_status = ? THEN total ELSE 0 END), 0) AS total_revenue`,
			models.PaymentStatusPaid, models.OrderStatusPending, models.OrderStatusCompleted, models.PaymentStatusPaid).
		Scan(&row).Error
	if err != nil {
		return nil, wrapError(KindUnexpected, "Failed to fetch admin statistics", err)
	}

	return &AdminStats{
		TotalOrders:       row.TotalOrders,
		PaidOrders:        row.PaidOrders,
		PendingOrders:     row.PendingOrders,
		UndeliveredOrders: row.UndeliveredOrders,
		TotalRevenue:      formatMoney(row.TotalRevenue),
	}, nil
}

// linesFor loads the lines of orderIDs grouped by order, restricted to sellerID when set.
func (s *ProjectionService) linesFor(ctx context.Context, orderIDs []string, sellerID string) (map[string][]lineRow, error) {
	grouped := make(map[string][]lineRow, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	q := s.lineQuery(ctx).Where("order_lines.order_id IN ?", orderIDs)
	if sellerID != "" {
		q = q.Where("order_lines.seller_id = ?", sellerID)
	}
	var rows []lineRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		grouped[r.OrderID] = append(grouped[r.OrderID], r)
	}
	return grouped, nil
}

func sellerView(o models.Order, rows []lineRow, detailed bool) SellerOrderView {
	v := SellerOrderView{
		OrderHeaderView: headerView(o),
		Customer:        partyOf(o.Buyer),
		Items:           make([]LineView, 0, len(rows)),
		IsPartialOrder:  detailed,
	}
	sellerTotal := decimal.Zero
	for _, r := range rows {
		v.Items = append(v.Items, r.view(false, detailed))
		sellerTotal = sellerTotal.Add(r.Total)
		v.SellerItemCount += r.Quantity
	}
	v.SellerTotal = formatMoney(sellerTotal)
	return v
}

func (r lineRow) view(withSeller, withDescription bool) LineView {
	v := LineView{
		ID:        r.ID,
		ProductID: r.ProductID,
		SellerID:  r.SellerID,
		Quantity:  r.Quantity,
		Price:     formatMoney(r.Price),
		Total:     formatMoney(r.Total),
		Variant:   r.Variant,
		CreatedAt: r.CreatedAt,
		Product: ProductSummary{
			ID:    r.ProductID,
			Name:  r.ProductName,
			Price: formatMoney(r.ProductPrice),
			Unit:  r.ProductUnit,
			Brand: r.ProductBrand,
		},
		ProductImage: r.ProductImage,
	}
	if withDescription {
		v.Product.Description = r.ProductDescription
	}
	if withSeller {
		v.Seller = &PartyView{ID: r.SellerID, Name: r.SellerName, Email: r.SellerEmail}
	}
	return v
}

func headerView(o models.Order) OrderHeaderView {
	return OrderHeaderView{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		Subtotal:        formatMoney(o.Subtotal),
		Shipping:        formatMoney(o.Shipping),
		Total:           formatMoney(o.Total),
		ShippingAddress: o.ShippingAddress,
		City:            o.City,
		State:           o.State,
		Zip:             o.Zip,
		Country:         o.Country,
		Phone:           o.Phone,
		Email:           o.Email,
		Name:            o.Name,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func partyOf(u *models.User) *PartyView {
	if u == nil {
		return nil
	}
	return &PartyView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func orderIDs(orders []models.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
