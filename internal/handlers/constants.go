package handlers

const (
	CSRFHeaderName = "X-CSRF-Token"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCredentials  = "Invalid child or PIN"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrServiceUnavailable  = "Service temporarily unavailable"
)
