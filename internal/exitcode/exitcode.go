// Package exitcode defines the process exit codes of the taskboard CLI.
package exitcode

const (
	Success = 0

	// UserError covers bad arguments, unknown task numbers and input the
	// store rejected as invalid.
	UserError = 1

	// AuthError means no usable session: not logged in, expired or rejected.
	AuthError = 2

	// BackendError covers network failures and unexpected store responses.
	BackendError = 3
)
