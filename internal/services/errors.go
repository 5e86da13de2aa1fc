package services

// ValidationError is a client mistake in the request payload. Surfaced as
// 400 with the message as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError marks a missing challan or product stock record. Surfaced
// as 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConfigurationError marks broken master data (missing or zero carton
// mapping). Surfaced as 400; resubmitting the same request cannot succeed
// until an operator fixes the mapping.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }
