package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/pkg/models"
)

var (
	ErrInvalidAmount      = errors.New("payment amount must be greater than zero")
	ErrOrderNotFound      = errors.New("order not found")
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Provider is the payment-gateway seam: order intents, refunds and payment
// lookups. Responses are passed through as the provider's JSON documents.
type Provider interface {
	CreateOrder(data map[string]interface{}) (map[string]interface{}, error)
	RefundPayment(paymentID string, amount int, data map[string]interface{}) (map[string]interface{}, error)
	FetchPayment(paymentID string) (map[string]interface{}, error)
}

type OrderStore interface {
	GetOrderByID(ctx context.Context, id bson.ObjectID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
}

// Service reconciles provider-side payment state with local orders.
type Service struct {
	provider Provider
	orders   OrderStore
	secret   []byte
}

func NewService(provider Provider, orders OrderStore, secret []byte) *Service {
	return &Service{provider: provider, orders: orders, secret: secret}
}

// minorUnits converts a currency amount to the provider's smallest unit.
func minorUnits(amount float64) int {
	return int(decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// CreateProviderOrder opens a provider-side payment intent sized in minor
// currency units. The provider's order handle is returned verbatim for the
// client payment sheet.
func (s *Service) CreateProviderOrder(ctx context.Context, amount float64, currency, receipt string) (map[string]interface{}, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = "INR"
	}
	if receipt == "" {
		receipt = fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	}

	data := map[string]interface{}{
		"amount":          minorUnits(amount),
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	providerOrder, err := s.provider.CreateOrder(data)
	if err != nil {
		return nil, fmt.Errorf("provider order creation failed: %w", err)
	}
	return providerOrder, nil
}

// VerifyPayment authenticates a provider callback against the shared-secret
// signature. On a match the order is marked paid and confirmed; on a
// mismatch the order's payment status is marked failed (best-effort, order
// status untouched) and ErrVerificationFailed is returned.
func (s *Service) VerifyPayment(ctx context.Context, providerOrderID, providerPaymentID, signature string, orderID bson.ObjectID) (*models.Order, error) {
	if !VerifySignature(s.secret, providerOrderID, providerPaymentID, signature) {
		if order, err := s.orders.GetOrderByID(ctx, orderID); err == nil && order != nil {
			order.PaymentInfo.Status = models.PaymentStatusFailed
			if err := s.orders.UpdateOrder(ctx, order); err != nil {
				log.Printf("Warning: failed to mark payment failed for order %s: %v", orderID.Hex(), err)
			}
		}
		return nil, ErrVerificationFailed
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	order.PaymentInfo = models.PaymentInfo{
		RazorpayOrderID:   providerOrderID,
		RazorpayPaymentID: providerPaymentID,
		RazorpaySignature: signature,
		Status:            models.PaymentStatusCompleted,
		PaidAt:            &now,
	}
	order.SetStatus(models.OrderStatusConfirmed, "Payment completed successfully", nil)

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Refund asks the provider to refund a payment and reconciles local state.
// The order's payment status is moved to refund_pending before the provider
// call; on acceptance both payment and order move to refunded. A failed
// local write after acceptance leaves refund_pending in place as an explicit
// manual-reconciliation marker; the provider response is still returned.
func (s *Service) Refund(ctx context.Context, admin *models.User, paymentID string, amount float64, orderID bson.ObjectID) (map[string]interface{}, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var previousStatus string
	if order != nil {
		previousStatus = order.PaymentInfo.Status
		order.PaymentInfo.Status = models.PaymentStatusRefundPending
		if err := s.orders.UpdateOrder(ctx, order); err != nil {
			return nil, err
		}
	}

	refund, err := s.provider.RefundPayment(paymentID, minorUnits(amount), map[string]interface{}{
		"speed": "normal",
	})
	if err != nil {
		if order != nil {
			order.PaymentInfo.Status = previousStatus
			if uerr := s.orders.UpdateOrder(ctx, order); uerr != nil {
				log.Printf("Warning: failed to revert refund_pending on order %s: %v", orderID.Hex(), uerr)
			}
		}
		return nil, fmt.Errorf("provider refund failed: %w", err)
	}

	if order != nil {
		order.PaymentInfo.Status = models.PaymentStatusRefunded
		order.SetStatus(models.OrderStatusRefunded, "Refund processed", &admin.ID)
		if err := s.orders.UpdateOrder(ctx, order); err != nil {
			log.Printf("Warning: refund accepted by provider but local update failed for order %s, left refund_pending: %v",
				orderID.Hex(), err)
		}
	}

	return refund, nil
}

// FetchPayment is a pass-through read of a provider payment record.
func (s *Service) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	payment, err := s.provider.FetchPayment(paymentID)
	if err != nil {
		return nil, fmt.Errorf("provider payment lookup failed: %w", err)
	}
	return payment, nil
}
