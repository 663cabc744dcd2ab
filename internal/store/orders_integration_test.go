//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/models"
)

func anaOrder() CreateOrderRequest {
	return CreateOrderRequest{
		Customer: models.Customer{Name: "Ana"},
		Items: []OrderItemRequest{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("16.00")},
			{ProductID: 6, Quantity: 1, UnitPrice: decimal.RequireFromString("12.00")},
		},
		PaymentMethod: "pix",
		DeliveryMode:  models.DeliveryModePickup,
	}
}

func TestCreateOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	order, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if order.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	if !order.Total.Equal(decimal.RequireFromString("44.00")) {
		t.Errorf("Expected total 44.00, got %s", order.Total)
	}
	if order.Status != models.StatusReceived {
		t.Errorf("Expected status received, got %s", order.Status)
	}
	if order.CreatedAt.Location() != saoPaulo {
		t.Errorf("Expected timestamp in America/Sao_Paulo, got %s", order.CreatedAt.Location())
	}

	if n := countRows(t, "clientes"); n != 1 {
		t.Errorf("Expected 1 customer row, got %d", n)
	}
	if n := countRows(t, "pedidos"); n != 1 {
		t.Errorf("Expected 1 order row, got %d", n)
	}
	if n := countRows(t, "itens_pedido"); n != 2 {
		t.Errorf("Expected 2 line item rows, got %d", n)
	}
}

func TestCreateOrderStoresLocalWallClock(t *testing.T) {
	instant := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	s := setupStore(t, WithClock(func() time.Time { return instant }))
	ctx := context.Background()

	order, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	detail, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}

	if detail.OrderedAt != "2025-06-01 20:30:00" {
		t.Errorf("Expected Sao Paulo wall clock 2025-06-01 20:30:00, got %s", detail.OrderedAt)
	}
}

func TestCreateOrderRepeatCustomerGetsNewRow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create first order: %v", err)
	}
	second, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create second order: %v", err)
	}

	if first.CustomerID == second.CustomerID {
		t.Error("Each submission should insert its own customer row")
	}
	if n := countRows(t, "clientes"); n != 2 {
		t.Errorf("Expected 2 customer rows, got %d", n)
	}
}

func TestCreateOrderRollsBackOnItemFailure(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	req := anaOrder()
	req.Items = append(req.Items, OrderItemRequest{ProductID: 999, Quantity: 1, UnitPrice: decimal.NewFromInt(5)})

	_, err := s.CreateOrder(ctx, req)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Fatalf("Expected product not found, got: %v", err)
	}

	for _, table := range []string{"clientes", "pedidos", "itens_pedido"} {
		if n := countRows(t, table); n != 0 {
			t.Errorf("Expected no rows in %s after rollback, got %d", table, n)
		}
	}
}

func TestCreateOrderRejectsMissingCustomerName(t *testing.T) {
	s := setupStore(t)

	req := anaOrder()
	req.Customer.Name = "  "

	_, err := s.CreateOrder(context.Background(), req)
	if !errors.Is(err, database.ErrCustomerNameRequired) {
		t.Fatalf("Expected customer name required, got: %v", err)
	}
	if n := countRows(t, "clientes"); n != 0 {
		t.Errorf("Expected no customer rows, got %d", n)
	}
}

func TestCreateOrderTotalMatchesStoredItems(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	req := anaOrder()
	req.Items = []OrderItemRequest{{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("0.005")}}

	order, err := s.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	var stored, summed decimal.Decimal
	err = testDB.QueryRowContext(ctx,
		`SELECT p.total, SUM(i.quantidade * i.preco_unitario)
		 FROM pedidos p JOIN itens_pedido i ON i.pedido_id = p.id
		 WHERE p.id = $1 GROUP BY p.total`, order.ID).Scan(&stored, &summed)
	if err != nil {
		t.Fatalf("Query totals: %v", err)
	}

	if !stored.Equal(summed) {
		t.Errorf("Stored total %s does not match item sum %s", stored, summed)
	}
	if !order.Total.Equal(stored) {
		t.Errorf("Returned total %s does not match stored total %s", order.Total, stored)
	}
}

func TestCreateOrderRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		item OrderItemRequest
	}{
		{"unit price overflows column", OrderItemRequest{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100000000)}},
		{"negative unit price", OrderItemRequest{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupStore(t)

			req := anaOrder()
			req.Items = []OrderItemRequest{tt.item}

			_, err := s.CreateOrder(context.Background(), req)
			if !errors.Is(err, database.ErrInvalidOrderData) {
				t.Fatalf("Expected invalid order data, got: %v", err)
			}
			if n := countRows(t, "pedidos"); n != 0 {
				t.Errorf("Expected no order rows, got %d", n)
			}
		})
	}
}

func TestCreateOrderStoresBlankContactFieldsAsNull(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	req := anaOrder()
	req.Customer = models.Customer{Name: "Ana", Phone: " ", Email: "", Address: "  "}

	order, err := s.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	var nulls int
	err = testDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clientes
		 WHERE id = $1 AND telefone IS NULL AND email IS NULL AND endereco IS NULL`,
		order.CustomerID).Scan(&nulls)
	if err != nil {
		t.Fatalf("Query customer: %v", err)
	}
	if nulls != 1 {
		t.Error("Expected blank phone, email and address to be stored as NULL")
	}
}

func TestCreateOrderUsesCatalogPricesWhenAsked(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	req := anaOrder()
	req.Items[0].UnitPrice = decimal.NewFromInt(1)
	req.UseCatalogPrices = true

	order, err := s.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if !order.Total.Equal(decimal.RequireFromString("44.00")) {
		t.Errorf("Expected catalog total 44.00, got %s", order.Total)
	}
}

func TestGetOrderItemsDoNotDriftWithCatalog(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	order, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if _, err := testDB.ExecContext(ctx, `UPDATE produtos SET preco = 99.90`); err != nil {
		t.Fatalf("Change catalog prices: %v", err)
	}

	detail, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}

	if len(detail.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(detail.Items))
	}

	want := []struct {
		name     string
		quantity int
		price    string
	}{
		{"X-Salada", 2, "16.00"},
		{"Coca-Cola 2L", 1, "12.00"},
	}
	for i, w := range want {
		item := detail.Items[i]
		if item.ProductName != w.name {
			t.Errorf("Item %d: expected name %s, got %s", i, w.name, item.ProductName)
		}
		if item.Quantity != w.quantity {
			t.Errorf("Item %d: expected quantity %d, got %d", i, w.quantity, item.Quantity)
		}
		if !item.UnitPrice.Equal(decimal.RequireFromString(w.price)) {
			t.Errorf("Item %d: expected price %s, got %s", i, w.price, item.UnitPrice)
		}
	}

	if !detail.Total.Equal(decimal.RequireFromString("44.00")) {
		t.Errorf("Total should stay 44.00, got %s", detail.Total)
	}
	if detail.CustomerName != "Ana" {
		t.Errorf("Expected customer Ana, got %s", detail.CustomerName)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetOrder(context.Background(), 999)
	if err != database.ErrOrderNotFound {
		t.Errorf("Expected order not found, got: %v", err)
	}
}

func TestUpdateStatusNotFoundLeavesTableUnchanged(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	order, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	err = s.UpdateStatus(ctx, 999, models.StatusReady)
	if err != database.ErrOrderNotFound {
		t.Fatalf("Expected order not found, got: %v", err)
	}

	detail, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if detail.Status != models.StatusReceived {
		t.Errorf("Existing order should keep status received, got %s", detail.Status)
	}
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	req := anaOrder()
	req.DeliveryMode = models.DeliveryModeDelivery
	order, err := s.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	for _, next := range []models.Status{
		models.StatusPreparing,
		models.StatusReady,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	} {
		if err := s.UpdateStatus(ctx, order.ID, next); err != nil {
			t.Fatalf("Move to %s: %v", next, err)
		}
	}

	err = s.UpdateStatus(ctx, order.ID, models.StatusReceived)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("Expected invalid transition from delivered, got: %v", err)
	}

	detail, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if detail.Status != models.StatusDelivered {
		t.Errorf("Expected status delivered, got %s", detail.Status)
	}
}

func TestUpdateStatusPickupNeverGoesOutForDelivery(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	order, err := s.CreateOrder(ctx, anaOrder())
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	for _, next := range []models.Status{models.StatusPreparing, models.StatusReady} {
		if err := s.UpdateStatus(ctx, order.ID, next); err != nil {
			t.Fatalf("Move to %s: %v", next, err)
		}
	}

	err = s.UpdateStatus(ctx, order.ID, models.StatusOutForDelivery)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected invalid transition, got: %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, saoPaulo)
	clock := []time.Time{
		base,
		base.Add(time.Hour),
		base.Add(time.Hour),
		base.Add(-time.Hour),
	}
	var mu sync.Mutex
	next := 0
	s := setupStore(t, WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ts := clock[next]
		next++
		return ts
	}))
	ctx := context.Background()

	var ids []int64
	for range clock {
		order, err := s.CreateOrder(ctx, anaOrder())
		if err != nil {
			t.Fatalf("Create order: %v", err)
		}
		ids = append(ids, order.ID)
	}

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}

	want := []int64{ids[2], ids[1], ids[0], ids[3]}
	if len(orders) != len(want) {
		t.Fatalf("Expected %d orders, got %d", len(want), len(orders))
	}
	for i, id := range want {
		if orders[i].ID != id {
			t.Errorf("Position %d: expected order %d, got %d", i, id, orders[i].ID)
		}
		if orders[i].CustomerName != "Ana" {
			t.Errorf("Position %d: expected customer Ana, got %q", i, orders[i].CustomerName)
		}
	}
}

func TestConcurrentOrderCreation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	concurrency := 10
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateOrder(ctx, anaOrder())
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if n := countRows(t, "pedidos"); n != concurrency {
		t.Errorf("Expected %d orders, got %d", concurrency, n)
	}
	if n := countRows(t, "itens_pedido"); n != 2*concurrency {
		t.Errorf("Expected %d line items, got %d", 2*concurrency, n)
	}
}
