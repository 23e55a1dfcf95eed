package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Sync failure taxonomy. A failed reconciliation pass resolves to exactly
	// one of these sentinels; callers branch with [errors.Is].
	ErrNetwork     = fmt.Errorf("remote catalog unreachable")
	ErrAuthExpired = fmt.Errorf("access token rejected by remote catalog")
	ErrStorage     = fmt.Errorf("storage operation failed")
	ErrCooldown    = fmt.Errorf("sync attempted within cooldown window")

	// Lookup errors
	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrEntityNotFound = fmt.Errorf("entity not found")
	ErrStateNotFound  = fmt.Errorf("sync state not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
