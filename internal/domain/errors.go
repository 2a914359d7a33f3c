package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation            ErrorCode = "VALIDATION_ERROR"
	CodeInsufficientFunds     ErrorCode = "INSUFFICIENT_FUNDS"
	CodeInsufficientQuantity  ErrorCode = "INSUFFICIENT_QUANTITY"
	CodeWalletNotFound        ErrorCode = "WALLET_NOT_FOUND"
	CodeExchangeNotFound      ErrorCode = "EXCHANGE_NOT_FOUND"
	CodeExchangeInvalidStatus ErrorCode = "EXCHANGE_INVALID_STATUS"
	CodeHeldMismatch          ErrorCode = "HELD_MISMATCH"
	CodeProposalNotFound      ErrorCode = "PROPOSAL_NOT_FOUND"
	CodeProposalInvalidStatus ErrorCode = "PROPOSAL_INVALID_STATUS"
	CodeDeliveryNotFound      ErrorCode = "DELIVERY_NOT_FOUND"
	CodeDeliveryInvalidStatus ErrorCode = "DELIVERY_INVALID_STATUS"
	CodeInventoryNotFound     ErrorCode = "INVENTORY_NOT_FOUND"
	CodeInventoryExpired      ErrorCode = "INVENTORY_EXPIRED"
	CodePermissionDenied      ErrorCode = "PERMISSION_DENIED"
	CodeWebhookUnauthorized   ErrorCode = "WEBHOOK_UNAUTHORIZED"
	CodeSubscriptionRequired  ErrorCode = "SUBSCRIPTION_REQUIRED"
	CodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// Error is the business error carried across the transaction boundary. The
// Code discriminant replaces substring matching on error messages; handlers
// branch on it exhaustively.
type Error struct {
	Code    ErrorCode
	Message string
	Status  int
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsError extracts the typed business error, or wraps err as an internal one.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{
		Code:    CodeInternal,
		Message: "an unexpected error occurred",
		Status:  http.StatusInternalServerError,
	}
}

// IsCode reports whether err is a business error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

func ErrValidation(message string, details map[string]any) *Error {
	return &Error{Code: CodeValidation, Message: message, Status: http.StatusBadRequest, Details: details}
}

func ErrInsufficientFunds(detail string) *Error {
	return &Error{Code: CodeInsufficientFunds, Message: "insufficient funds", Status: http.StatusConflict, Details: map[string]any{"detail": detail}}
}

func ErrInsufficientQuantity(available, requested int64) *Error {
	return &Error{
		Code:    CodeInsufficientQuantity,
		Message: "insufficient quantity available",
		Status:  http.StatusConflict,
		Details: map[string]any{"available": available, "requested": requested},
	}
}

func ErrWalletNotFound(userID string) *Error {
	return &Error{Code: CodeWalletNotFound, Message: fmt.Sprintf("wallet not found for user %s", userID), Status: http.StatusNotFound}
}

func ErrExchangeNotFound(exchangeID string) *Error {
	return &Error{Code: CodeExchangeNotFound, Message: fmt.Sprintf("exchange %s not found", exchangeID), Status: http.StatusNotFound}
}

func ErrExchangeInvalidStatus(status, expected ExchangeStatus) *Error {
	return &Error{
		Code:    CodeExchangeInvalidStatus,
		Message: fmt.Sprintf("exchange status is %s, expected %s", status, expected),
		Status:  http.StatusConflict,
	}
}

func ErrHeldMismatch(userID string) *Error {
	return &Error{
		Code:    CodeHeldMismatch,
		Message: fmt.Sprintf("held balance of user %s is below the recorded hold", userID),
		Status:  http.StatusConflict,
	}
}

func ErrProposalNotFound(proposalID string) *Error {
	return &Error{Code: CodeProposalNotFound, Message: fmt.Sprintf("proposal %s not found", proposalID), Status: http.StatusNotFound}
}

func ErrProposalInvalidStatus(status ProposalStatus) *Error {
	return &Error{
		Code:    CodeProposalInvalidStatus,
		Message: fmt.Sprintf("proposal status is %s, expected %s", status, ProposalStatusPending),
		Status:  http.StatusConflict,
	}
}

func ErrDeliveryNotFound(deliveryID string) *Error {
	return &Error{Code: CodeDeliveryNotFound, Message: fmt.Sprintf("delivery %s not found", deliveryID), Status: http.StatusNotFound}
}

func ErrDeliveryInvalidStatus(status DeliveryStatus) *Error {
	return &Error{
		Code:    CodeDeliveryInvalidStatus,
		Message: fmt.Sprintf("delivery status is %s, expected picked_up or in_transit", status),
		Status:  http.StatusConflict,
	}
}

func ErrInventoryNotFound(itemID string) *Error {
	return &Error{Code: CodeInventoryNotFound, Message: fmt.Sprintf("inventory item %s not found", itemID), Status: http.StatusNotFound}
}

func ErrInventoryExpired(itemID string) *Error {
	return &Error{Code: CodeInventoryExpired, Message: fmt.Sprintf("inventory item %s is expired", itemID), Status: http.StatusConflict}
}

func ErrPermissionDenied(message string) *Error {
	return &Error{Code: CodePermissionDenied, Message: message, Status: http.StatusForbidden}
}

func ErrWebhookUnauthorized() *Error {
	return &Error{Code: CodeWebhookUnauthorized, Message: "invalid webhook token", Status: http.StatusUnauthorized}
}

func ErrSubscriptionRequired(status string) *Error {
	return &Error{
		Code:    CodeSubscriptionRequired,
		Message: "active subscription required",
		Status:  http.StatusConflict,
		Details: map[string]any{"subscription_status": status},
	}
}

func ErrInternal(message string) *Error {
	return &Error{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError}
}
