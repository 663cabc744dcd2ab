// Package orders validates order submissions and status changes before they
// reach the store.
package orders

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/safar/lanchonete-orders/internal/models"
	"github.com/safar/lanchonete-orders/internal/store"
)

// DefaultPaymentMethod is recorded when a submission names none.
const DefaultPaymentMethod = "não especificado"

// Limits of the order columns: quantidade INTEGER, preco_unitario
// NUMERIC(10,2) and total NUMERIC(12,2).
const (
	maxQuantity = math.MaxInt32
	priceScale  = 2
)

var (
	priceLimit = decimal.New(1, 8)
	totalLimit = decimal.New(1, 10)
)

type Repository interface {
	CreateOrder(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.OrderSummary, error)
	GetOrder(ctx context.Context, id int64) (*models.OrderDetail, error)
	UpdateStatus(ctx context.Context, id int64, next models.Status) error
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Submission is an order as sent by a customer.
type Submission struct {
	Customer      *models.Customer
	Items         []Item
	PaymentMethod string
	DeliveryMode  string
}

type Item struct {
	ProductID int64
	Quantity  int
	// Price is the client-side unit price. It is required only while client
	// prices are trusted.
	Price *decimal.Decimal
}

type Service struct {
	repo              Repository
	trustClientPrices bool
}

type Option func(*Service)

// WithClientPrices decides whose price becomes the line item snapshot: the
// client's (true, the historical behaviour) or the catalog's (false).
func WithClientPrices(trust bool) Option {
	return func(s *Service) {
		s.trustClientPrices = trust
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, trustClientPrices: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitOrder validates sub and stores it as one unit. It returns the new
// order id.
func (s *Service) SubmitOrder(ctx context.Context, sub Submission) (int64, error) {
	req, err := s.buildRequest(sub)
	if err != nil {
		return 0, err
	}

	order, err := s.repo.CreateOrder(ctx, req)
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*models.OrderDetail, error) {
	return s.repo.GetOrder(ctx, id)
}

// UpdateStatus parses raw and asks the store to apply the transition.
func (s *Service) UpdateStatus(ctx context.Context, id int64, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrStatusRequired
	}
	next, err := models.ParseStatus(raw)
	if err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, next)
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) buildRequest(sub Submission) (store.CreateOrderRequest, error) {
	if isEmptyCustomer(sub.Customer) || len(sub.Items) == 0 {
		return store.CreateOrderRequest{}, ValidationError{Field: "pedido", Message: "Dados incompletos", Err: ErrIncomplete}
	}

	customer := *sub.Customer
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Name == "" {
		return store.CreateOrderRequest{}, ValidationError{Field: "cliente.nome", Message: "Nome do cliente é obrigatório"}
	}

	mode, err := models.ParseDeliveryMode(sub.DeliveryMode)
	if err != nil {
		return store.CreateOrderRequest{}, ValidationError{Field: "tipo", Message: "Tipo de pedido inválido", Err: err}
	}

	payment := strings.TrimSpace(sub.PaymentMethod)
	if payment == "" {
		payment = DefaultPaymentMethod
	}

	items := make([]store.OrderItemRequest, 0, len(sub.Items))
	total := decimal.Zero
	for i, item := range sub.Items {
		if err := s.validateItem(i, item); err != nil {
			return store.CreateOrderRequest{}, err
		}
		req := store.OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
		if item.Price != nil {
			req.UnitPrice = *item.Price
		}
		items = append(items, req)
		total = total.Add(req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}
	// Catalog prices are only known inside the store transaction; a total
	// overflow there surfaces as database.ErrInvalidOrderData.
	if s.trustClientPrices && total.GreaterThanOrEqual(totalLimit) {
		return store.CreateOrderRequest{}, ValidationError{Field: "pedido", Message: "Total do pedido excede o limite permitido"}
	}

	return store.CreateOrderRequest{
		Customer:         customer,
		Items:            items,
		PaymentMethod:    payment,
		DeliveryMode:     mode,
		UseCatalogPrices: !s.trustClientPrices,
	}, nil
}

func (s *Service) validateItem(index int, item Item) error {
	field := func(name string) string {
		return fmt.Sprintf("itens[%d].%s", index, name)
	}
	if item.ProductID <= 0 {
		return ValidationError{Field: field("id"), Message: "Produto inválido"}
	}
	if item.Quantity <= 0 {
		return ValidationError{Field: field("quantity"), Message: "Quantidade deve ser maior que zero"}
	}
	if item.Quantity > maxQuantity {
		return ValidationError{Field: field("quantity"), Message: "Quantidade excede o limite permitido"}
	}
	if item.Price == nil {
		if s.trustClientPrices {
			return ValidationError{Field: field("price"), Message: "Preço não informado"}
		}
		return nil
	}
	if item.Price.IsNegative() {
		return ValidationError{Field: field("price"), Message: "Preço não pode ser negativo"}
	}
	if !item.Price.Equal(item.Price.Round(priceScale)) {
		return ValidationError{Field: field("price"), Message: "Preço deve ter no máximo duas casas decimais"}
	}
	if item.Price.GreaterThanOrEqual(priceLimit) {
		return ValidationError{Field: field("price"), Message: "Preço excede o limite permitido"}
	}
	return nil
}

func isEmptyCustomer(c *models.Customer) bool {
	return c == nil || *c == (models.Customer{})
}
