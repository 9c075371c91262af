package broker

import "fmt"

// TransportError marks a dispatch that never reached the broker. The caller
// may retry the whole flow: no outbox record exists for a failed dispatch.
type TransportError struct {
	Broker string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Broker, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
