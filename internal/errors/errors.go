// Package errors defines application error types and the helpers that classify,
// retry and report them.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Невірний формат даних. %s", msg),
		Severity:    SeverityLow,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "Сервіс тимчасово недоступний, спробуйте пізніше",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewPermanentAPIError marks a provider failure that retrying will not fix,
// such as an unexpected response shape or a 4xx status.
func NewPermanentAPIError(apiName string, cause error) *AppError {
	err := NewExternalAPIError(apiName, cause)
	err.Code = "E301"
	err.Retryable = false
	return err
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "Операція неможлива в поточному стані",
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Забагато запитів. Спробуйте через %d секунд", retryAfter),
		Severity:    SeverityLow,
	}
}

func NewInternalError(cause error) *AppError {
	return &AppError{
		Code:        "E900",
		Message:     "internal error",
		UserMessage: "Щось пішло не так. Спробуйте пізніше",
		Severity:    SeverityCritical,
		cause:       cause,
	}
}
