package services

import (
	"context"
	"time"
)

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

type OrderCreated struct {
	OrderID    string    `json:"orderId"`
	BuyerID    string    `json:"buyerId"`
	SellerIDs  []string  `json:"sellerIds"`
	Total      string    `json:"total"`
	Reference  string    `json:"reference"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (OrderCreated) Type() string { return "order.created" }

type OrderPaid struct {
	OrderID    string    `json:"orderId"`
	BuyerID    string    `json:"buyerId"`
	Reference  string    `json:"reference"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (OrderPaid) Type() string { return "order.paid" }

type ReviewAggregated struct {
	ProductID   string    `json:"productId"`
	Rating      string    `json:"rating"`
	ReviewCount int64     `json:"reviewCount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func (ReviewAggregated) Type() string { return "review.aggregated" }

// Mailer sends the buyer a confirmation once payment has been verified.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to, name, orderID, total string) error
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, Event) error { return nil }

type nopMailer struct{}

func (nopMailer) SendOrderConfirmation(context.Context, string, string, string, string) error {
	return nil
}
