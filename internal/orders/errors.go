package orders

import (
	"errors"
	"fmt"

	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/models"
)

var (
	// ErrIncomplete means the submission lacks a customer or items.
	ErrIncomplete = errors.New("incomplete order submission")
	// ErrStatusRequired means a status update carried no status.
	ErrStatusRequired = errors.New("status is required")
)

// ValidationError reports a rejected field. Message is safe to show to the
// client.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the request rather than by
// the service or its storage.
func IsClientError(err error) bool {
	var ve ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrStatusRequired),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCustomerNameRequired),
		errors.Is(err, database.ErrEmptyOrder),
		errors.Is(err, database.ErrInvalidOrderData):
		return true
	}
	return false
}
