package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"nome"`
	Price decimal.Decimal `json:"preco"`
}

type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"nome"`
	Phone   string `json:"telefone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"endereco,omitempty"`
}

// Order is the order header. Total is fixed at creation time.
type Order struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"cliente_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"forma_pagamento"`
	DeliveryMode  DeliveryMode    `json:"tipo_entrega"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"-"`
}

type OrderItem struct {
	ID        int64           `json:"-"`
	OrderID   int64           `json:"-"`
	ProductID int64           `json:"produto_id"`
	Quantity  int             `json:"quantidade"`
	UnitPrice decimal.Decimal `json:"preco_unitario"`
}

// OrderItemDetail is a line item joined with its product name.
type OrderItemDetail struct {
	OrderItem
	ProductName string `json:"nome"`
}

// OrderSummary is one row of the staff listing: the header plus the owning
// customer's contact fields.
type OrderSummary struct {
	Order
	OrderedAt       string `json:"data_pedido"`
	CustomerName    string `json:"cliente_nome"`
	CustomerPhone   string `json:"cliente_telefone"`
	CustomerAddress string `json:"cliente_endereco"`
}

type OrderDetail struct {
	OrderSummary
	Items []OrderItemDetail `json:"itens"`
}

// TimestampLayout is how order timestamps are rendered to clients.
const TimestampLayout = "2006-01-02 15:04:05"

// NewSummary fills the rendered fields from the order header.
func NewSummary(order Order, customer Customer) OrderSummary {
	return OrderSummary{
		Order:           order,
		OrderedAt:       order.CreatedAt.Format(TimestampLayout),
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
	}
}

// LineTotal is quantity times unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums quantity * unit price over items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
