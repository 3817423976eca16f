package shared

import "fmt"

var (
	// Connection and authentication errors
	ErrConnect    = fmt.Errorf("connection failed")
	ErrAuth       = fmt.Errorf("authentication failed")
	ErrPermission = fmt.Errorf("missing required permissions")

	// Library and shuffle errors
	ErrLibraryFetch = fmt.Errorf("failed to fetch library")
	ErrEmptyChain   = fmt.Errorf("shuffle chain is empty")

	// Input validation errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrInvalidRule   = fmt.Errorf("invalid exclusion rule")
)
