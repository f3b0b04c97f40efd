package tenant

import "errors"

// Resolution errors. The tenant middleware maps them to 404, 403 and 503.
var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantNotActive = errors.New("tenant is not active")
	ErrMaxPoolLimit    = errors.New("tenant pool limit reached")
)

// Missing wiring: a tenant-scoped call ran without the tenant middleware.
var (
	ErrNoPoolInContext = errors.New("tenant pool missing from context")
	ErrNoTxManager     = errors.New("tenant transaction manager missing from context")
)
