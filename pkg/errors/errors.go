package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeBotError   = "BOT_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeTransport  = "TRANSPORT_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeStore      = "STORE_ERROR"
	CodeService    = "SERVICE_ERROR"
)

var (
	// ErrMissingAPIKey is returned when a run starts before an OMDb key was saved.
	ErrMissingAPIKey = stderrors.New("omdb api key is not configured")

	// ErrRunInProgress is returned when a room already has a recommendation running.
	ErrRunInProgress = stderrors.New("recommendation already running")
)

type BotError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func NewBotError(message, code string, statusCode int, context map[string]any) *BotError {
	return &BotError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *BotError) WithCause(cause error) *BotError {
	e.Cause = cause
	return e
}

type APIError struct {
	*BotError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// TransportError reports a non-success HTTP status or a failed round trip.
// StatusCode is 0 when no response was received.
type TransportError struct {
	*BotError
}

func NewTransportError(message string, statusCode int, cause error) *TransportError {
	return &TransportError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeTransport,
			StatusCode: statusCode,
			Cause:      cause,
		},
	}
}

// NotFoundError reports a logical failure from the remote catalog, e.g. an unknown identifier.
type NotFoundError struct {
	*BotError
	ID string
}

func NewNotFoundError(message, id string) *NotFoundError {
	return &NotFoundError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeNotFound,
			StatusCode: 404,
			Context: map[string]any{
				"id": id,
			},
		},
		ID: id,
	}
}

type ValidationError struct {
	*BotError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type StoreError struct {
	*BotError
	Operation string
	Key       string
}

func NewStoreError(message, operation, key string, cause error) *StoreError {
	return &StoreError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeStore,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*BotError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		BotError: &BotError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return stderrors.As(err, &te)
}
