package cmd

// ExitError carries a specific process exit code for a subcommand that
// completed without a Go-level failure but whose outcome still needs a
// non-zero status (e.g. "needs_iteration" or an invocation-time error).
// main.go inspects returned errors for this type before falling back to
// exit code 1.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "engine: non-zero exit"
}
