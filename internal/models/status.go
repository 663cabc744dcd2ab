package models

import (
	"errors"
	"strings"
)

type Status string

const (
	StatusReceived       Status = "received"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var (
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidDeliveryMode = errors.New("invalid delivery mode")
)

var statusAliases = map[string]Status{
	"received":          StatusReceived,
	"recebido":          StatusReceived,
	"preparing":         StatusPreparing,
	"preparando":        StatusPreparing,
	"em_preparo":        StatusPreparing,
	"ready":             StatusReady,
	"pronto":            StatusReady,
	"out_for_delivery":  StatusOutForDelivery,
	"saiu_para_entrega": StatusOutForDelivery,
	"em_entrega":        StatusOutForDelivery,
	"delivered":         StatusDelivered,
	"entregue":          StatusDelivered,
	"cancelled":         StatusCancelled,
	"canceled":          StatusCancelled,
	"cancelado":         StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusReceived:       {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReady, StatusCancelled},
	StatusReady:          {StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      nil,
	StatusCancelled:      nil,
}

// ParseStatus accepts the canonical names and the Portuguese labels used by
// the staff panel. Case and surrounding spaces are ignored; spaces and dashes
// inside the label count as underscores.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if status, ok := statusAliases[key]; ok {
		return status, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether an order with the given delivery mode may
// move from s to next. Pickup orders never go out for delivery.
func (s Status) CanTransitionTo(next Status, mode DeliveryMode) bool {
	if next == StatusOutForDelivery && mode != DeliveryModeDelivery {
		return false
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type DeliveryMode string

const (
	DeliveryModePickup   DeliveryMode = "pickup"
	DeliveryModeDelivery DeliveryMode = "delivery"
)

// ParseDeliveryMode maps the submitted "tipo" to a delivery mode. An empty
// value means pickup.
func ParseDeliveryMode(raw string) (DeliveryMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pickup", "retirada", "retirar":
		return DeliveryModePickup, nil
	case "delivery", "entrega":
		return DeliveryModeDelivery, nil
	default:
		return "", ErrInvalidDeliveryMode
	}
}
