package nostr

import "fmt"

// ValidationError is returned when an event, filter, relay or metadata record
// is constructed from malformed inputs. It is always raised synchronously at
// construction time, never during streaming.
type ValidationError struct {
	What   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.What, e.Reason)
}

// ConnectionError wraps a transport-level failure: dial, send or receive
// errors, or proxy misconfiguration for onion relays.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Op, e.URL)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
