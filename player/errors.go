package player

import "fmt"

// ConnectionError reports that the session bus could not be reached or the
// connection dropped. It is fatal at startup and recoverable later only by a
// full re-open (see Bridge.Reconnect).
type ConnectionError struct {
	Service string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Service, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PropertyError reports a failed synchronous property read.
type PropertyError struct {
	Interface string
	Name      string
	Err       error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("get property %s.%s: %v", e.Interface, e.Name, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// CallError reports a failed asynchronous method call.
type CallError struct {
	Interface string
	Method    string
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s.%s: %v", e.Interface, e.Method, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
