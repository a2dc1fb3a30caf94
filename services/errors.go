package services

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindUnauthenticated
	KindInvalidInput
	KindValidationFailed
	KindPaymentInitFailed
	KindPaymentVerificationFailed
	KindNotFound
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidInput:
		return "invalid_input"
	case KindValidationFailed:
		return "validation_failed"
	case KindPaymentInitFailed:
		return "payment_init_failed"
	case KindPaymentVerificationFailed:
		return "payment_verification_failed"
	case KindNotFound:
		return "not_found"
	case KindPersistenceFailure:
		return "persistence_failure"
	}
	return "unexpected"
}

// Error is the client-facing failure of a service operation. Message is safe to show;
// the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	// Missing lists the product ids a cart referenced that the catalog did not confirm.
	Missing []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

var (
	ErrUnauthenticated = newError(KindUnauthenticated, "Unauthorized")
	ErrOrderNotFound   = newError(KindNotFound, "Order not found")
	ErrReviewNotFound  = newError(KindNotFound, "Review not found")
)

func missingProductsError(ids []string) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: "Products not found: " + strings.Join(ids, ", "),
		Missing: ids,
	}
}

// KindOf returns the Kind carried by err, or KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
