package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		itemsPrice   float64
		wantTax      float64
		wantShipping float64
		wantTotal    float64
	}{
		{
			name:         "flat shipping below threshold",
			itemsPrice:   2000,
			wantTax:      360,
			wantShipping: 200,
			wantTotal:    2560,
		},
		{
			name:         "threshold itself still pays shipping",
			itemsPrice:   5000,
			wantTax:      900,
			wantShipping: 200,
			wantTotal:    6100,
		},
		{
			name:         "free shipping above threshold",
			itemsPrice:   5000.01,
			wantTax:      900,
			wantShipping: 0,
			wantTotal:    5900.01,
		},
		{
			name:         "rounding to currency precision",
			itemsPrice:   999.99,
			wantTax:      180,
			wantShipping: 200,
			wantTotal:    1379.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{ItemsPrice: tt.itemsPrice}
			order.CalculateTotals()

			assert.Equal(t, tt.wantTax, order.TaxPrice)
			assert.Equal(t, tt.wantShipping, order.ShippingPrice)
			assert.Equal(t, tt.wantTotal, order.TotalPrice)
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusRefunded, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusRefunded, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			order := &Order{OrderStatus: tt.from}
			assert.Equal(t, tt.want, order.CanTransitionTo(tt.to))
		})
	}
}

func TestCanBeCancelled(t *testing.T) {
	cancellable := []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing}
	for _, status := range cancellable {
		order := &Order{OrderStatus: status}
		assert.True(t, order.CanBeCancelled(), "expected %s to be cancellable", status)
	}

	locked := []string{OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded}
	for _, status := range locked {
		order := &Order{OrderStatus: status}
		assert.False(t, order.CanBeCancelled(), "expected %s to not be cancellable", status)
	}
}

func TestSetStatusAppendsOneHistoryEntry(t *testing.T) {
	admin := bson.NewObjectID()
	order := &Order{}

	order.SetStatus(OrderStatusPending, "Order placed", nil)
	order.SetStatus(OrderStatusConfirmed, "Payment completed successfully", nil)
	order.SetStatus(OrderStatusCancelled, "Changed my mind", &admin)

	assert.Len(t, order.StatusHistory, 3)
	assert.Equal(t, OrderStatusCancelled, order.OrderStatus)
	assert.Equal(t, "Changed my mind", order.StatusHistory[2].Note)
	assert.Equal(t, &admin, order.StatusHistory[2].UpdatedBy)
	assert.NotNil(t, order.CancelledAt)
	assert.Nil(t, order.DeliveredAt)
}

func TestSetStatusDeliveredStampsDeliveredAt(t *testing.T) {
	order := &Order{OrderStatus: OrderStatusShipped}
	order.SetStatus(OrderStatusDelivered, "", nil)

	assert.NotNil(t, order.DeliveredAt)
	assert.Nil(t, order.CancelledAt)
	assert.True(t, order.IsTerminal())
}

func TestOwnedBy(t *testing.T) {
	owner := bson.NewObjectID()
	stranger := bson.NewObjectID()

	order := &Order{User: &owner}
	assert.True(t, order.OwnedBy(owner))
	assert.False(t, order.OwnedBy(stranger))

	guestOrder := &Order{IsGuestOrder: true}
	assert.False(t, guestOrder.OwnedBy(owner))
}

func TestGenerateOrderNumber(t *testing.T) {
	number := GenerateOrderNumber()

	parts := strings.Split(number, "-")
	assert.Len(t, parts, 3)
	assert.Equal(t, "ORD", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 8)
	assert.Equal(t, strings.ToUpper(number), number)
}

func TestTrackingProjectionOmitsSensitiveFields(t *testing.T) {
	userID := bson.NewObjectID()
	order := &Order{
		OrderNumber: "ORD-20260830-ABCD1234",
		User:        &userID,
		OrderStatus: OrderStatusShipped,
		Items: []OrderItem{
			{Product: bson.NewObjectID(), Name: "Walnut Bookshelf", Image: "https://cdn.example.com/shelf.jpg", Quantity: 2, Price: 1500},
		},
		ShippingAddress: Address{FullName: "A Customer", Street: "12 Elm St"},
		TrackingInfo:    &TrackingInfo{Carrier: "BlueDart", TrackingNumber: "BD123"},
		ItemsPrice:      3000,
		TotalPrice:      3740,
	}
	order.SetStatus(OrderStatusShipped, "On the way", nil)

	tracking := order.Tracking()

	assert.Equal(t, order.OrderNumber, tracking.OrderNumber)
	assert.Equal(t, OrderStatusShipped, tracking.OrderStatus)
	assert.Equal(t, order.TrackingInfo, tracking.TrackingInfo)
	assert.Len(t, tracking.Items, 1)
	assert.Equal(t, "Walnut Bookshelf", tracking.Items[0].Name)
	assert.Equal(t, "https://cdn.example.com/shelf.jpg", tracking.Items[0].Image)
	assert.Len(t, tracking.StatusHistory, 1)
}
