package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	// ErrTenantMutation is raised when an update attempts to move a record to
	// a different tenant. This is an isolation violation and is never
	// converted to a soft failure.
	ErrTenantMutation = NewDomainError("TENANT_MUTATION", "Tenant ID of an existing record cannot be changed")

	// ErrTenantRequired is raised when an operation needs a tenant in context
	// but none was resolved.
	ErrTenantRequired = NewDomainError("TENANT_REQUIRED", "No tenant bound to the current context")

	// ErrSubscriptionExpired is raised when the resolved tenant's trial or
	// subscription has lapsed.
	ErrSubscriptionExpired = NewDomainError("SUBSCRIPTION_EXPIRED", "Tenant subscription has expired")

	// ErrDuplicateNumber is raised when a generated document number collides
	// with an existing one. Callers retry with a fresh number.
	ErrDuplicateNumber = NewDomainError("DUPLICATE_NUMBER", "Generated document number already exists")
)
