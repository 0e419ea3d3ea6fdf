package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Order lifecycle statuses. Forward path is pending → confirmed →
// processing → shipped → delivered; cancellation is allowed until shipping,
// refund only from confirmed. Cancelled, delivered and refunded are
// terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment sub-record statuses.
const (
	PaymentStatusPending       = "pending"
	PaymentStatusCompleted     = "completed"
	PaymentStatusFailed        = "failed"
	PaymentStatusRefundPending = "refund_pending"
	PaymentStatusRefunded      = "refunded"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCOD    = "cod"
)

// Tax and shipping rules for order totals.
const (
	TaxRate               = 0.18
	FreeShippingThreshold = 5000.0
	FlatShippingPrice     = 200.0
)

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// OrderItem is the denormalized snapshot of a product captured at order
// time, immune to later catalog edits.
type OrderItem struct {
	Product       bson.ObjectID `json:"product" bson:"product" validate:"required"`
	Name          string        `json:"name" bson:"name" validate:"required"`
	Image         string        `json:"image" bson:"image"`
	Quantity      int           `json:"quantity" bson:"quantity" validate:"required,gte=1"`
	Price         float64       `json:"price" bson:"price" validate:"gte=0"`
	DiscountPrice *float64      `json:"discountPrice,omitempty" bson:"discountPrice,omitempty"`
}

// Address represents a shipping or billing address
type Address struct {
	FullName   string `json:"fullName" bson:"fullName" validate:"required"`
	Street     string `json:"street" bson:"street" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	State      string `json:"state" bson:"state" validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// GuestCustomer is the contact block embedded in guest orders in place of a
// user reference.
type GuestCustomer struct {
	Name  string `json:"name" bson:"name" validate:"required"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone" bson:"phone" validate:"required"`
}

// PaymentInfo records the payment-provider side of an order.
type PaymentInfo struct {
	RazorpayOrderID   string     `json:"razorpayOrderId,omitempty" bson:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string     `json:"razorpayPaymentId,omitempty" bson:"razorpayPaymentId,omitempty"`
	RazorpaySignature string     `json:"razorpaySignature,omitempty" bson:"razorpaySignature,omitempty"`
	Status            string     `json:"status,omitempty" bson:"status,omitempty"`
	PaidAt            *time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// StatusEvent is one entry in the append-only status history.
type StatusEvent struct {
	Status    string         `json:"status" bson:"status"`
	Note      string         `json:"note,omitempty" bson:"note,omitempty"`
	UpdatedBy *bson.ObjectID `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
}

// TrackingInfo is carrier data attached when an order ships.
type TrackingInfo struct {
	Carrier        string `json:"carrier,omitempty" bson:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
}

// Order is immutable once created except for status transitions. Exactly one
// of User / GuestCustomer is populated, never both.
type Order struct {
	ID            bson.ObjectID  `json:"id" bson:"_id,omitempty"`
	OrderNumber   string         `json:"orderNumber" bson:"order_number"`
	User          *bson.ObjectID `json:"user,omitempty" bson:"user,omitempty"`
	IsGuestOrder  bool           `json:"isGuestOrder" bson:"isGuestOrder"`
	GuestCustomer *GuestCustomer `json:"guestCustomer,omitempty" bson:"guestCustomer,omitempty"`
	Items         []OrderItem    `json:"items" bson:"items" validate:"required,min=1,dive"`

	ShippingAddress Address  `json:"shippingAddress" bson:"shippingAddress"`
	BillingAddress  *Address `json:"billingAddress,omitempty" bson:"billingAddress,omitempty"`

	PaymentMethod string      `json:"paymentMethod" bson:"paymentMethod" validate:"required,oneof=online cod"`
	PaymentInfo   PaymentInfo `json:"paymentInfo" bson:"paymentInfo"`

	ItemsPrice    float64 `json:"itemsPrice" bson:"itemsPrice" validate:"gte=0"`
	TaxPrice      float64 `json:"taxPrice" bson:"taxPrice" validate:"gte=0"`
	ShippingPrice float64 `json:"shippingPrice" bson:"shippingPrice" validate:"gte=0"`
	TotalPrice    float64 `json:"totalPrice" bson:"totalPrice" validate:"gte=0"`

	OrderStatus   string        `json:"orderStatus" bson:"orderStatus"`
	StatusHistory []StatusEvent `json:"statusHistory" bson:"statusHistory"`
	TrackingInfo  *TrackingInfo `json:"trackingInfo,omitempty" bson:"trackingInfo,omitempty"`

	CancelReason string     `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	DeliveredAt  *time.Time `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// CalculateTotals recomputes tax, shipping and grand total from ItemsPrice.
// Tax is 18% GST; shipping is free above the threshold, flat otherwise.
// All figures are rounded to currency precision before storage.
func (o *Order) CalculateTotals() {
	items := decimal.NewFromFloat(o.ItemsPrice).Round(2)
	tax := items.Mul(decimal.NewFromFloat(TaxRate)).Round(2)

	shipping := decimal.NewFromFloat(FlatShippingPrice)
	if items.GreaterThan(decimal.NewFromFloat(FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	o.ItemsPrice = items.InexactFloat64()
	o.TaxPrice = tax.InexactFloat64()
	o.ShippingPrice = shipping.InexactFloat64()
	o.TotalPrice = items.Add(tax).Add(shipping).Round(2).InexactFloat64()
}

// CanTransitionTo reports whether the state machine allows moving from the
// current status to next.
func (o *Order) CanTransitionTo(next string) bool {
	for _, allowed := range orderTransitions[o.OrderStatus] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanBeCancelled reports whether cancellation is still allowed.
func (o *Order) CanBeCancelled() bool {
	switch o.OrderStatus {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return true
}

// IsTerminal reports whether the order has reached a final status.
func (o *Order) IsTerminal() bool {
	switch o.OrderStatus {
	case OrderStatusCancelled, OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}

// SetStatus moves the order to status and appends exactly one history entry.
func (o *Order) SetStatus(status, note string, updatedBy *bson.ObjectID) {
	now := time.Now()
	o.OrderStatus = status
	o.StatusHistory = append(o.StatusHistory, StatusEvent{
		Status:    status,
		Note:      note,
		UpdatedBy: updatedBy,
		Timestamp: now,
	})
	switch status {
	case OrderStatusCancelled:
		o.CancelledAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
}

// OwnedBy reports whether the order belongs to the given registered user.
func (o *Order) OwnedBy(userID bson.ObjectID) bool {
	return o.User != nil && *o.User == userID
}

func (o *Order) SetTimestamps() {
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

// GenerateOrderNumber builds a customer-facing order reference.
// Format: ORD-YYYYMMDD-XXXXXXXX.
func GenerateOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// TrackedItem is the restricted item view exposed by public tracking.
type TrackedItem struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// OrderTracking is the public projection of an order: no pricing, no
// address, no payment detail.
type OrderTracking struct {
	OrderNumber   string        `json:"orderNumber"`
	OrderStatus   string        `json:"orderStatus"`
	StatusHistory []StatusEvent `json:"statusHistory"`
	TrackingInfo  *TrackingInfo `json:"trackingInfo,omitempty"`
	Items         []TrackedItem `json:"items"`
	CreatedAt     time.Time     `json:"createdAt"`
	DeliveredAt   *time.Time    `json:"deliveredAt,omitempty"`
}

// Tracking builds the public projection.
func (o *Order) Tracking() *OrderTracking {
	items := make([]TrackedItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = TrackedItem{Name: item.Name, Image: item.Image}
	}
	return &OrderTracking{
		OrderNumber:   o.OrderNumber,
		OrderStatus:   o.OrderStatus,
		StatusHistory: o.StatusHistory,
		TrackingInfo:  o.TrackingInfo,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		DeliveredAt:   o.DeliveredAt,
	}
}
