package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
	ErrorClassForeignKey
	ErrorClassCheck
	ErrorClassNumericRange
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23503":
			return ErrorClassForeignKey
		case "23514":
			return ErrorClassCheck
		case "22003":
			return ErrorClassNumericRange
		case "23505", "23502":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrWriteConflict        = errors.New("conflicting write")
	ErrInvalidOrderData     = errors.New("order data rejected by constraint")
)

// IsConstraintViolation reports whether err is a CHECK failure or a value
// that does not fit its column.
func IsConstraintViolation(err error) bool {
	switch ClassifyError(err) {
	case ErrorClassCheck, ErrorClassNumericRange:
		return true
	}
	return false
}
