package errors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/agro-presale/internal/domain"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Kind classifies an AppError independently of its message; errors.Is matches on it.
type Kind string

const (
	KindInvalidAmount       Kind = "invalid_amount"
	KindBelowMinimum        Kind = "below_minimum"
	KindExceedsAvailable    Kind = "exceeds_available"
	KindWalletNotInstalled  Kind = "wallet_not_installed"
	KindWalletRejected      Kind = "wallet_rejected"
	KindWalletConnectFailed Kind = "wallet_connect_failed"
	KindSubmissionFailed    Kind = "submission_failed"
	KindExternalAPI         Kind = "external_api"
	KindState               Kind = "state"
	KindRateLimit           Kind = "rate_limit"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidAmount       = &AppError{Kind: KindInvalidAmount}
	ErrBelowMinimum        = &AppError{Kind: KindBelowMinimum}
	ErrExceedsAvailable    = &AppError{Kind: KindExceedsAvailable}
	ErrWalletNotInstalled  = &AppError{Kind: KindWalletNotInstalled}
	ErrWalletRejected      = &AppError{Kind: KindWalletRejected}
	ErrWalletConnectFailed = &AppError{Kind: KindWalletConnectFailed}
	ErrSubmissionFailed    = &AppError{Kind: KindSubmissionFailed}
	ErrExternalAPI         = &AppError{Kind: KindExternalAPI}
	ErrState               = &AppError{Kind: KindState}
	ErrRateLimit           = &AppError{Kind: KindRateLimit}
)

type AppError struct {
	Code      string
	Kind      Kind
	Message   string
	UserKey   string
	Params    map[string]string
	Limit     decimal.Decimal
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Kind)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// Is matches any AppError of the same Kind, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind != "" && e.Kind == t.Kind
}

// Param returns a user-message parameter, or "" when absent.
func (e *AppError) Param(name string) string {
	if e == nil || e.Params == nil {
		return ""
	}
	return e.Params[name]
}

// maxEchoedInput bounds how much of a rejected input ends up in logs.
const maxEchoedInput = 32

func NewInvalidAmountError(raw string) *AppError {
	if runes := []rune(raw); len(runes) > maxEchoedInput {
		raw = string(runes[:maxEchoedInput]) + "..."
	}

	return &AppError{
		Code:     "E100",
		Kind:     KindInvalidAmount,
		Message:  fmt.Sprintf("invalid amount %q", raw),
		UserKey:  "errors.invalid_amount",
		Severity: SeverityLow,
	}
}

func NewBelowMinimumError(amount, minimum decimal.Decimal) *AppError {
	return &AppError{
		Code:     "E101",
		Kind:     KindBelowMinimum,
		Message:  fmt.Sprintf("amount %s below minimum %s", amount, minimum),
		UserKey:  "errors.below_minimum",
		Params:   map[string]string{"Min": minimum.String()},
		Limit:    minimum,
		Severity: SeverityLow,
	}
}

func NewExceedsAvailableError(amount, available decimal.Decimal) *AppError {
	return &AppError{
		Code:     "E102",
		Kind:     KindExceedsAvailable,
		Message:  fmt.Sprintf("amount %s exceeds available %s", amount, available),
		UserKey:  "errors.exceeds_available",
		Params:   map[string]string{"Available": domain.FormatMoney(available)},
		Limit:    available,
		Severity: SeverityLow,
	}
}

func NewWalletNotInstalledError() *AppError {
	return &AppError{
		Code:     "E200",
		Kind:     KindWalletNotInstalled,
		Message:  "wallet provider not installed",
		UserKey:  "errors.wallet_not_installed",
		Severity: SeverityLow,
	}
}

func NewWalletRejectedError(cause error) *AppError {
	return &AppError{
		Code:     "E201",
		Kind:     KindWalletRejected,
		Message:  "wallet connection rejected by user",
		UserKey:  "errors.wallet_rejected",
		Severity: SeverityLow,
		cause:    cause,
	}
}

func NewWalletConnectError(cause error) *AppError {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}

	return &AppError{
		Code:      "E202",
		Kind:      KindWalletConnectFailed,
		Message:   fmt.Sprintf("wallet connect failed: %s", reason),
		UserKey:   "errors.wallet_failed",
		Params:    map[string]string{"Reason": reason},
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

// NewSubmissionError reports a failed investment submission. A non-empty reason
// comes from the server and is shown verbatim; otherwise the generic message is used.
func NewSubmissionError(reason string, cause error) *AppError {
	err := &AppError{
		Code:     "E300",
		Kind:     KindSubmissionFailed,
		Message:  "investment submission failed",
		UserKey:  "errors.submission_failed",
		Severity: SeverityMedium,
		cause:    cause,
	}
	if reason != "" {
		err.Message = fmt.Sprintf("investment submission failed: %s", reason)
		err.UserKey = "errors.submission_failed_reason"
		err.Params = map[string]string{"Reason": reason}
	}

	return err
}

func NewExternalAPIError(apiName string, retryable bool, cause error) *AppError {
	return &AppError{
		Code:      "E301",
		Kind:      KindExternalAPI,
		Message:   fmt.Sprintf("External API error: %s", apiName),
		UserKey:   "errors.service_unavailable",
		Severity:  SeverityMedium,
		Retryable: retryable,
		cause:     cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:     "E400",
		Kind:     KindState,
		Message:  msg,
		UserKey:  "errors.state",
		Severity: SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:     "E500",
		Kind:     KindRateLimit,
		Message:  fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserKey:  "errors.rate_limit",
		Params:   map[string]string{"Seconds": fmt.Sprint(retryAfter)},
		Severity: SeverityLow,
	}
}
