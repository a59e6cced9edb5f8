// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, ambiguous).
	UserError = 1

	// SpaceError indicates a missing or invalid space token.
	SpaceError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
