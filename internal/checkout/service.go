package checkout

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/pkg/models"
)

// ProductStore is the catalog seam the workflow needs: lookups plus the
// atomic stock reservation primitives.
type ProductStore interface {
	GetProductByID(ctx context.Context, id bson.ObjectID) (*models.Product, error)
	ReserveStock(ctx context.Context, id bson.ObjectID, quantity int) (bool, error)
	ReleaseStock(ctx context.Context, id bson.ObjectID, quantity int) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	GetOrderByID(ctx context.Context, id bson.ObjectID) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByUser(ctx context.Context, userID bson.ObjectID, page, limit int) ([]models.Order, error)
	CountOrdersByUser(ctx context.Context, userID bson.ObjectID) (int64, error)
}

type CartStore interface {
	ClearCart(ctx context.Context, userID bson.ObjectID) error
}

type UserStore interface {
	GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

// Publisher emits order lifecycle events. Failures are logged, never
// surfaced to the customer.
type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

// Notifier sends transactional mail. Same best-effort contract as Publisher.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email, name string, order *models.Order) error
}

// Service implements the order workflow: creation with stock reservation,
// listing, capability-style reads, cancellation, tracking and admin status
// transitions.
type Service struct {
	products  ProductStore
	orders    OrderStore
	carts     CartStore
	users     UserStore
	publisher Publisher
	notifier  Notifier
}

// NewService wires the workflow. publisher and notifier may be nil when the
// deployment has no broker or mail sender configured.
func NewService(products ProductStore, orders OrderStore, carts CartStore, users UserStore, publisher Publisher, notifier Notifier) *Service {
	return &Service{
		products:  products,
		orders:    orders,
		carts:     carts,
		users:     users,
		publisher: publisher,
		notifier:  notifier,
	}
}

type ItemInput struct {
	Product  bson.ObjectID
	Quantity int
}

type CreateOrderInput struct {
	Items           []ItemInput
	ShippingAddress models.Address
	BillingAddress  *models.Address
	PaymentMethod   string
	PaymentInfo     *models.PaymentInfo
	GuestCustomer   *models.GuestCustomer
}

// CreateOrder validates the item list against the current catalog, prices
// the order, snapshots the items, reserves stock atomically per item and
// persists the order. Any failure after a reservation releases every
// reservation already taken, so a failed checkout never leaks stock.
func (s *Service) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	itemsPrice := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(in.Items))

	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.products.GetProductByID(ctx, item.Product)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &ProductNotFoundError{ProductID: item.Product.Hex()}
		}
		if product.Stock < item.Quantity {
			return nil, &InsufficientStockError{ProductName: product.Name}
		}

		unit := decimal.NewFromFloat(product.EffectivePrice())
		itemsPrice = itemsPrice.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))

		orderItems = append(orderItems, models.OrderItem{
			Product:       product.ID,
			Name:          product.Name,
			Image:         product.PrimaryImage(),
			Quantity:      item.Quantity,
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
		})
	}

	order := &models.Order{
		ID:              bson.NewObjectID(),
		OrderNumber:     models.GenerateOrderNumber(),
		Items:           orderItems,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      itemsPrice.Round(2).InexactFloat64(),
	}
	order.CalculateTotals()
	if in.PaymentInfo != nil {
		order.PaymentInfo = *in.PaymentInfo
	}

	var updatedBy *bson.ObjectID
	if actor.IsGuest() {
		guest := in.GuestCustomer
		if guest == nil {
			guest = actor.Guest()
		}
		if guest == nil || strings.TrimSpace(guest.Name) == "" ||
			strings.TrimSpace(guest.Email) == "" || strings.TrimSpace(guest.Phone) == "" {
			return nil, ErrGuestInfoRequired
		}
		order.IsGuestOrder = true
		order.GuestCustomer = guest
	} else {
		userID := actor.User().ID
		order.User = &userID
		updatedBy = &userID
	}

	initial := models.OrderStatusPending
	if in.PaymentMethod == models.PaymentMethodCOD {
		initial = models.OrderStatusConfirmed
	}
	order.SetStatus(initial, "Order placed", updatedBy)

	reserved := make([]models.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		ok, err := s.products.ReserveStock(ctx, item.Product, item.Quantity)
		if err != nil {
			s.releaseReserved(ctx, reserved)
			return nil, err
		}
		if !ok {
			// Lost the race since the validation pass. All-or-nothing:
			// give back what we already took.
			s.releaseReserved(ctx, reserved)
			return nil, &InsufficientStockError{ProductName: item.Name}
		}
		reserved = append(reserved, item)
	}

	if _, err := s.orders.InsertOrder(ctx, order); err != nil {
		s.releaseReserved(ctx, reserved)
		return nil, err
	}

	if !actor.IsGuest() {
		if err := s.carts.ClearCart(ctx, actor.User().ID); err != nil {
			log.Printf("Warning: failed to clear cart for user %s after order %s: %v",
				actor.User().ID.Hex(), order.OrderNumber, err)
		}
	}

	s.publishOrderEvent(ctx, "order.created", order)
	s.sendConfirmation(ctx, actor, order)

	return order, nil
}

func (s *Service) releaseReserved(ctx context.Context, reserved []models.OrderItem) {
	for _, item := range reserved {
		if err := s.products.ReleaseStock(ctx, item.Product, item.Quantity); err != nil {
			log.Printf("Warning: failed to release reserved stock for product %s: %v",
				item.Product.Hex(), err)
		}
	}
}

func (s *Service) publishOrderEvent(ctx context.Context, topic string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"orderId":     order.ID.Hex(),
		"orderNumber": order.OrderNumber,
		"status":      order.OrderStatus,
		"totalPrice":  order.TotalPrice,
		"isGuest":     order.IsGuestOrder,
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		log.Printf("Warning: failed to publish %s for order %s: %v", topic, order.OrderNumber, err)
	}
}

func (s *Service) sendConfirmation(ctx context.Context, actor Actor, order *models.Order) {
	if s.notifier == nil {
		return
	}
	email, name := "", ""
	if actor.IsGuest() {
		email, name = order.GuestCustomer.Email, order.GuestCustomer.Name
	} else {
		email, name = actor.User().Email, actor.User().Name
	}
	if email == "" {
		return
	}
	if err := s.notifier.SendOrderConfirmation(ctx, email, name, order); err != nil {
		log.Printf("Warning: failed to send confirmation for order %s: %v", order.OrderNumber, err)
	}
}

// NormalizePagination clamps page and limit to their supported bounds. The
// transport layer applies the same clamp so echoed pagination always matches
// the query that ran.
func NormalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// ListOrders returns a page of the user's orders, newest first, with the
// aggregate count. Page and limit are normalized to sane bounds.
func (s *Service) ListOrders(ctx context.Context, userID bson.ObjectID, page, limit int) ([]models.Order, int64, error) {
	page, limit = NormalizePagination(page, limit)

	orders, err := s.orders.ListOrdersByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.CountOrdersByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetOrder fetches an order by id. The id works as a bearer capability:
// unauthenticated callers may read any order, like a receipt number, but
// an authenticated caller must own the order or be an admin. The owning
// user's contact fields are returned alongside registered orders.
func (s *Service) GetOrder(ctx context.Context, caller *models.User, id bson.ObjectID) (*models.Order, *models.User, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}

	if caller != nil && order.User != nil && *order.User != caller.ID && !caller.IsAdmin() {
		return nil, nil, ErrNotOrderOwner
	}

	var owner *models.User
	if order.User != nil {
		owner, err = s.users.GetUserByID(ctx, *order.User)
		if err != nil {
			log.Printf("Warning: failed to expand owner of order %s: %v", order.OrderNumber, err)
			owner = nil
		}
	}
	return order, owner, nil
}

// CancelOrder cancels a non-terminal order owned by the caller, restores
// every item's stock and sold counters, and appends one cancelled entry to
// the status history.
func (s *Service) CancelOrder(ctx context.Context, caller *models.User, id bson.ObjectID, reason string) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.OwnedBy(caller.ID) {
		return nil, ErrNotOrderOwner
	}
	if !order.CanBeCancelled() {
		return nil, ErrOrderNotCancellable
	}

	if reason == "" {
		reason = "Cancelled by user"
	}
	order.CancelReason = reason
	order.SetStatus(models.OrderStatusCancelled, reason, &caller.ID)

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}

	// Stock is restored only after the cancellation is persisted; a failed
	// write must never leave restored stock against a live order.
	for _, item := range order.Items {
		if err := s.products.ReleaseStock(ctx, item.Product, item.Quantity); err != nil {
			log.Printf("Warning: failed to restore stock for product %s on cancel of %s: %v",
				item.Product.Hex(), order.OrderNumber, err)
		}
	}

	s.publishOrderEvent(ctx, "order.cancelled", order)
	return order, nil
}

// TrackOrder returns the public restricted projection: status, history and
// item display fields only. No authentication required.
func (s *Service) TrackOrder(ctx context.Context, id bson.ObjectID) (*models.OrderTracking, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order.Tracking(), nil
}

// UpdateStatus moves an order along the forward path. Admin only; the
// transition must be allowed by the state machine. Tracking info may be
// attached when the order ships.
func (s *Service) UpdateStatus(ctx context.Context, admin *models.User, id bson.ObjectID, status, note string, tracking *models.TrackingInfo) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.CanTransitionTo(status) {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: status}
	}

	if tracking != nil {
		order.TrackingInfo = tracking
	}
	order.SetStatus(status, note, &admin.ID)

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.publishOrderEvent(ctx, "order.status_changed", order)
	return order, nil
}
