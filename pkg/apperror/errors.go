package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Hook Security (SEC) ----

func ErrUnauthorizedCaller() *AppError {
	return New("SEC_001", "Caller is not the recognized asset-transfer hook", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_002", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_003", "Nonce has already been used", http.StatusForbidden)
}

// ---- Escrow Business Logic (ESC) ----

func ErrIneligiblePrincipal() *AppError {
	return New("ESC_001", "Inviter is not an eligible principal", http.StatusForbidden)
}

func ErrOperatorMismatch() *AppError {
	return New("ESC_002", "Transfer operator does not match the inviter", http.StatusForbidden)
}

func ErrAmountOutOfRange(amount, min, max string) *AppError {
	return New("ESC_003",
		fmt.Sprintf("Escrow amount %s outside allowed range [%s, %s]", amount, min, max),
		http.StatusUnprocessableEntity)
}

func ErrMalformedPayload() *AppError {
	return New("ESC_004", "Counterpart payload cannot be decoded", http.StatusBadRequest)
}

func ErrCounterpartAlreadyOnboarded() *AppError {
	return New("ESC_005", "Invitee is already an onboarded principal", http.StatusConflict)
}

func ErrInvalidCounterpart() *AppError {
	return New("ESC_006", "Invitee address is null or reserved", http.StatusBadRequest)
}

func ErrDuplicateRelationship() *AppError {
	return New("ESC_007", "An active escrow already exists for this pair", http.StatusConflict)
}

func ErrNoSuchRelationship() *AppError {
	return New("ESC_008", "No active escrow exists for this pair", http.StatusNotFound)
}

func ErrTrustMissingOrExpired() *AppError {
	return New("ESC_009", "Inviter does not currently trust the invitee", http.StatusForbidden)
}

func ErrReentrantCall() *AppError {
	return New("ESC_010", "Ledger operation already in progress", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrOracleFailure(err error) *AppError {
	return Wrap("SYS_002", "Identity oracle unavailable", http.StatusBadGateway, err)
}

func ErrTransferFailure(err error) *AppError {
	return Wrap("SYS_003", "Value transfer failed", http.StatusBadGateway, err)
}

// Validation returns an ESC_004-style validation error.
func Validation(message string) *AppError {
	return New("ESC_004", message, http.StatusBadRequest)
}
