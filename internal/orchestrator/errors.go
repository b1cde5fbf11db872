package orchestrator

import "fmt"

// Code is the error taxonomy every orchestrator operation surfaces
// instead of panicking or returning an opaque error. No error aborts
// the process; invalid inputs never mutate session state.
type Code string

const (
	BadInput      Code = "BAD_INPUT"
	BadCard       Code = "BAD_CARD"
	BadRules      Code = "BAD_RULES"
	WrongMode     Code = "WRONG_MODE"
	WrongState    Code = "WRONG_STATE"
	IllegalAction Code = "ILLEGAL_ACTION"
	ShoeExhausted Code = "SHOE_EXHAUSTED"
	SessionGone   Code = "SESSION_GONE"
	SessionBusy   Code = "SESSION_BUSY"
)

// EngineError is the structured error every public operation returns.
// Callers switch on Code rather than matching error strings.
type EngineError struct {
	Code    Code
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}
