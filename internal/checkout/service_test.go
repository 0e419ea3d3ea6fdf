package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/internal/mocks"
	"github.com/oakline/storefront/pkg/models"
)

type serviceFixture struct {
	products *mocks.MockProductStore
	orders   *mocks.MockOrderStore
	carts    *mocks.MockCartStore
	users    *mocks.MockUserStore
	service  *Service
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		products: new(mocks.MockProductStore),
		orders:   new(mocks.MockOrderStore),
		carts:    new(mocks.MockCartStore),
		users:    new(mocks.MockUserStore),
	}
	f.service = NewService(f.products, f.orders, f.carts, f.users, nil, nil)
	return f
}

func testProduct(id bson.ObjectID, name string, price float64, stock int) *models.Product {
	return &models.Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
		Images:   []models.ProductImage{{URL: "https://cdn.example.com/" + name + ".jpg"}},
	}
}

func testAddress() models.Address {
	return models.Address{
		FullName:   "Priya Sharma",
		Street:     "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}
}

func TestCreateOrderCODRegisteredUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user := &models.User{ID: bson.NewObjectID(), Email: "priya@example.com", Name: "Priya Sharma"}
	productID := bson.NewObjectID()
	product := testProduct(productID, "oak-table", 1000, 10)

	f.products.On("GetProductByID", mock.Anything, productID).Return(product, nil)
	f.products.On("ReserveStock", mock.Anything, productID, 2).Return(true, nil)
	f.orders.On("InsertOrder", mock.Anything, mock.AnythingOfType("*models.Order")).Return(&models.Order{}, nil)
	f.carts.On("ClearCart", mock.Anything, user.ID).Return(nil)

	order, err := f.service.CreateOrder(ctx, RegisteredActor(user), CreateOrderInput{
		Items:           []ItemInput{{Product: productID, Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.OrderStatus)
	assert.Len(t, order.StatusHistory, 1)
	assert.Equal(t, 2000.0, order.ItemsPrice)
	assert.Equal(t, 360.0, order.TaxPrice)
	assert.Equal(t, 200.0, order.ShippingPrice)
	assert.Equal(t, 2560.0, order.TotalPrice)
	assert.Equal(t, &user.ID, order.User)
	assert.False(t, order.IsGuestOrder)
	assert.NotEmpty(t, order.OrderNumber)

	f.products.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.carts.AssertExpectations(t)
}

func TestCreateOrderOnlineStartsPending(t *testing.T) {
	f := newFixture()

	user := &models.User{ID: bson.NewObjectID()}
	productID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, productID).Return(testProduct(productID, "sofa", 6000, 3), nil)
	f.products.On("ReserveStock", mock.Anything, productID, 1).Return(true, nil)
	f.orders.On("InsertOrder", mock.Anything, mock.Anything).Return(&models.Order{}, nil)
	f.carts.On("ClearCart", mock.Anything, user.ID).Return(nil)

	order, err := f.service.CreateOrder(context.Background(), RegisteredActor(user), CreateOrderInput{
		Items:           []ItemInput{{Product: productID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodOnline,
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	// Above the free-shipping threshold.
	assert.Equal(t, 0.0, order.ShippingPrice)
}

func TestCreateOrderGuest(t *testing.T) {
	f := newFixture()
	productID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, productID).Return(testProduct(productID, "lamp", 500, 4), nil)
	f.products.On("ReserveStock", mock.Anything, productID, 1).Return(true, nil)
	f.orders.On("InsertOrder", mock.Anything, mock.Anything).Return(&models.Order{}, nil)

	guest := &models.GuestCustomer{Name: "Arjun", Email: "arjun@example.com", Phone: "9876543210"}
	order, err := f.service.CreateOrder(context.Background(), GuestActor(guest), CreateOrderInput{
		Items:           []ItemInput{{Product: productID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
		GuestCustomer:   guest,
	})

	require.NoError(t, err)
	assert.True(t, order.IsGuestOrder)
	assert.Nil(t, order.User)
	assert.Equal(t, guest, order.GuestCustomer)
	// Guests have no server-side cart to clear.
	f.carts.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
}

func TestCreateOrderGuestMissingContact(t *testing.T) {
	f := newFixture()
	productID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, productID).Return(testProduct(productID, "lamp", 500, 4), nil)

	tests := []*models.GuestCustomer{
		nil,
		{Name: "", Email: "a@example.com", Phone: "123"},
		{Name: "A", Email: "  ", Phone: "123"},
		{Name: "A", Email: "a@example.com", Phone: ""},
	}

	for _, guest := range tests {
		_, err := f.service.CreateOrder(context.Background(), GuestActor(guest), CreateOrderInput{
			Items:           []ItemInput{{Product: productID, Quantity: 1}},
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCOD,
			GuestCustomer:   guest,
		})
		assert.ErrorIs(t, err, ErrGuestInfoRequired)
	}

	f.products.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderEmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateOrder(context.Background(), GuestActor(nil), CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})

	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCreateOrderInvalidQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateOrder(context.Background(), GuestActor(nil), CreateOrderInput{
		Items:         []ItemInput{{Product: bson.NewObjectID(), Quantity: 0}},
		PaymentMethod: models.PaymentMethodCOD,
	})

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateOrderProductNotFound(t *testing.T) {
	f := newFixture()
	productID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, productID).Return(nil, nil)

	_, err := f.service.CreateOrder(context.Background(), GuestActor(nil), CreateOrderInput{
		Items:         []ItemInput{{Product: productID, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCOD,
	})

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, productID.Hex(), notFound.ProductID)
	f.products.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture()
	productID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, productID).Return(testProduct(productID, "bench", 800, 1), nil)

	_, err := f.service.CreateOrder(context.Background(), GuestActor(nil), CreateOrderInput{
		Items:         []ItemInput{{Product: productID, Quantity: 3}},
		PaymentMethod: models.PaymentMethodCOD,
	})

	var noStock *InsufficientStockError
	require.ErrorAs(t, err, &noStock)
	assert.Equal(t, "bench", noStock.ProductName)
	f.products.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderReservationRaceRollsBack(t *testing.T) {
	f := newFixture()

	firstID := bson.NewObjectID()
	secondID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, firstID).Return(testProduct(firstID, "chair", 300, 5), nil)
	f.products.On("GetProductByID", mock.Anything, secondID).Return(testProduct(secondID, "desk", 2000, 2), nil)
	f.products.On("ReserveStock", mock.Anything, firstID, 2).Return(true, nil)
	// A concurrent checkout drained the second product between validation
	// and reservation.
	f.products.On("ReserveStock", mock.Anything, secondID, 1).Return(false, nil)
	f.products.On("ReleaseStock", mock.Anything, firstID, 2).Return(nil)

	guest := &models.GuestCustomer{Name: "A", Email: "a@example.com", Phone: "123"}
	_, err := f.service.CreateOrder(context.Background(), GuestActor(guest), CreateOrderInput{
		Items: []ItemInput{
			{Product: firstID, Quantity: 2},
			{Product: secondID, Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})

	var noStock *InsufficientStockError
	require.ErrorAs(t, err, &noStock)
	assert.Equal(t, "desk", noStock.ProductName)

	f.products.AssertCalled(t, "ReleaseStock", mock.Anything, firstID, 2)
	f.orders.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderInsertFailureReleasesStock(t *testing.T) {
	f := newFixture()
	productID := bson.NewObjectID()

	f.products.On("GetProductByID", mock.Anything, productID).Return(testProduct(productID, "stool", 400, 5), nil)
	f.products.On("ReserveStock", mock.Anything, productID, 1).Return(true, nil)
	f.products.On("ReleaseStock", mock.Anything, productID, 1).Return(nil)
	f.orders.On("InsertOrder", mock.Anything, mock.Anything).Return(nil, errors.New("write concern error"))

	guest := &models.GuestCustomer{Name: "A", Email: "a@example.com", Phone: "123"}
	_, err := f.service.CreateOrder(context.Background(), GuestActor(guest), CreateOrderInput{
		Items:           []ItemInput{{Product: productID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	})

	require.Error(t, err)
	f.products.AssertCalled(t, "ReleaseStock", mock.Anything, productID, 1)
}

func TestGetOrder(t *testing.T) {
	ownerID := bson.NewObjectID()
	orderID := bson.NewObjectID()

	newOrder := func() *models.Order {
		return &models.Order{ID: orderID, User: &ownerID, OrderNumber: "ORD-20260830-TEST0001"}
	}

	t.Run("owner can read", func(t *testing.T) {
		f := newFixture()
		owner := &models.User{ID: ownerID, Email: "owner@example.com"}
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(), nil)
		f.users.On("GetUserByID", mock.Anything, ownerID).Return(owner, nil)

		order, customer, err := f.service.GetOrder(context.Background(), owner, orderID)
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, owner, customer)
	})

	t.Run("stranger is refused", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(), nil)

		stranger := &models.User{ID: bson.NewObjectID(), Role: models.RoleUser}
		_, _, err := f.service.GetOrder(context.Background(), stranger, orderID)
		assert.ErrorIs(t, err, ErrNotOrderOwner)
	})

	t.Run("admin can read any order", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(), nil)
		f.users.On("GetUserByID", mock.Anything, ownerID).Return(&models.User{ID: ownerID}, nil)

		admin := &models.User{ID: bson.NewObjectID(), Role: models.RoleAdmin}
		_, _, err := f.service.GetOrder(context.Background(), admin, orderID)
		assert.NoError(t, err)
	})

	t.Run("unauthenticated read works as receipt capability", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(), nil)
		f.users.On("GetUserByID", mock.Anything, ownerID).Return(&models.User{ID: ownerID}, nil)

		_, _, err := f.service.GetOrder(context.Background(), nil, orderID)
		assert.NoError(t, err)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(nil, nil)

		_, _, err := f.service.GetOrder(context.Background(), nil, orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	ownerID := bson.NewObjectID()
	orderID := bson.NewObjectID()
	productID := bson.NewObjectID()

	newOrder := func(status string) *models.Order {
		order := &models.Order{
			ID:    orderID,
			User:  &ownerID,
			Items: []models.OrderItem{{Product: productID, Name: "chair", Quantity: 2, Price: 300}},
		}
		order.SetStatus(status, "Order placed", &ownerID)
		return order
	}
	owner := &models.User{ID: ownerID}

	t.Run("success restores stock", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(models.OrderStatusPending), nil)
		f.products.On("ReleaseStock", mock.Anything, productID, 2).Return(nil)
		f.orders.On("UpdateOrder", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)

		order, err := f.service.CancelOrder(context.Background(), owner, orderID, "Changed my mind")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, order.OrderStatus)
		assert.Equal(t, "Changed my mind", order.CancelReason)
		assert.NotNil(t, order.CancelledAt)
		assert.Len(t, order.StatusHistory, 2)

		f.products.AssertCalled(t, "ReleaseStock", mock.Anything, productID, 2)
	})

	t.Run("default reason", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(models.OrderStatusConfirmed), nil)
		f.products.On("ReleaseStock", mock.Anything, productID, 2).Return(nil)
		f.orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)

		order, err := f.service.CancelOrder(context.Background(), owner, orderID, "")
		require.NoError(t, err)
		assert.Equal(t, "Cancelled by user", order.CancelReason)
	})

	t.Run("failed write leaves stock reserved", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(models.OrderStatusPending), nil)
		f.orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(errors.New("replica set stepdown"))

		_, err := f.service.CancelOrder(context.Background(), owner, orderID, "")
		require.Error(t, err)
		// The order is still live, so its reservations must stand.
		f.products.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("shipped order is locked", func(t *testing.T) {
		for _, status := range []string{
			models.OrderStatusShipped,
			models.OrderStatusDelivered,
			models.OrderStatusCancelled,
			models.OrderStatusRefunded,
		} {
			f := newFixture()
			f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(status), nil)

			_, err := f.service.CancelOrder(context.Background(), owner, orderID, "")
			assert.ErrorIs(t, err, ErrOrderNotCancellable, "status %s", status)
			f.products.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything, mock.Anything)
			f.orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(newOrder(models.OrderStatusPending), nil)

		stranger := &models.User{ID: bson.NewObjectID()}
		_, err := f.service.CancelOrder(context.Background(), stranger, orderID, "")
		assert.ErrorIs(t, err, ErrNotOrderOwner)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newFixture()
		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(nil, nil)

		_, err := f.service.CancelOrder(context.Background(), owner, orderID, "")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestTrackOrder(t *testing.T) {
	f := newFixture()
	orderID := bson.NewObjectID()
	ownerID := bson.NewObjectID()

	order := &models.Order{
		ID:          orderID,
		OrderNumber: "ORD-20260830-TRACK001",
		User:        &ownerID,
		Items:       []models.OrderItem{{Product: bson.NewObjectID(), Name: "wardrobe", Image: "img.jpg", Quantity: 1, Price: 9000}},
		ItemsPrice:  9000,
		TotalPrice:  10620,
	}
	order.SetStatus(models.OrderStatusShipped, "On the way", nil)
	f.orders.On("GetOrderByID", mock.Anything, orderID).Return(order, nil)

	tracking, err := f.service.TrackOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260830-TRACK001", tracking.OrderNumber)
	assert.Equal(t, models.OrderStatusShipped, tracking.OrderStatus)
	assert.Equal(t, []models.TrackedItem{{Name: "wardrobe", Image: "img.jpg"}}, tracking.Items)
}

func TestUpdateStatus(t *testing.T) {
	admin := &models.User{ID: bson.NewObjectID(), Role: models.RoleAdmin}
	orderID := bson.NewObjectID()

	t.Run("valid transition with tracking info", func(t *testing.T) {
		f := newFixture()
		order := &models.Order{ID: orderID}
		order.SetStatus(models.OrderStatusProcessing, "", nil)

		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(order, nil)
		f.orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)

		tracking := &models.TrackingInfo{Carrier: "BlueDart", TrackingNumber: "BD42"}
		updated, err := f.service.UpdateStatus(context.Background(), admin, orderID, models.OrderStatusShipped, "Handed to carrier", tracking)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, updated.OrderStatus)
		assert.Equal(t, tracking, updated.TrackingInfo)
		assert.Equal(t, &admin.ID, updated.StatusHistory[len(updated.StatusHistory)-1].UpdatedBy)
	})

	t.Run("invalid transition", func(t *testing.T) {
		f := newFixture()
		order := &models.Order{ID: orderID}
		order.SetStatus(models.OrderStatusPending, "", nil)

		f.orders.On("GetOrderByID", mock.Anything, orderID).Return(order, nil)

		_, err := f.service.UpdateStatus(context.Background(), admin, orderID, models.OrderStatusDelivered, "", nil)

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, models.OrderStatusPending, invalid.From)
		assert.Equal(t, models.OrderStatusDelivered, invalid.To)
		f.orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
	})
}

func TestNormalizePagination(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{1, 10, 1, 10},
		{0, 10, 1, 10},
		{-3, 500, 1, 10},
		{2, 0, 2, 10},
		{4, 100, 4, 100},
		{4, 101, 4, 10},
	}

	for _, tt := range tests {
		page, limit := NormalizePagination(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func TestListOrdersNormalizesPagination(t *testing.T) {
	f := newFixture()
	userID := bson.NewObjectID()

	f.orders.On("ListOrdersByUser", mock.Anything, userID, 1, 10).Return([]models.Order{}, nil)
	f.orders.On("CountOrdersByUser", mock.Anything, userID).Return(int64(0), nil)

	_, total, err := f.service.ListOrders(context.Background(), userID, -3, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	f.orders.AssertCalled(t, "ListOrdersByUser", mock.Anything, userID, 1, 10)
}
