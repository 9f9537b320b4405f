package exitcode

// Exit codes for course-llm commands
const (
	Success   = 0
	Error     = 1
	Config    = 1 // missing credential or unusable provider
	Usage     = 2
	Cancelled = 130 // 128 + SIGINT
)

// ExitError is an error that carries a specific exit code
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e ExitError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Convenience constructors
func ConfigErr(err error) ExitError { return ExitError{Code: Config, Err: err} }
func Failed(msg string) ExitError   { return ExitError{Code: Error, Message: msg} }
func Cancel() ExitError             { return ExitError{Code: Cancelled, Message: "cancelled"} }
