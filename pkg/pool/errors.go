package pool

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a poll cycle failed.
type FailureKind int

const (
	TransportFailure FailureKind = iota
	ProtocolFailure
	ApplicationFailure
)

var (
	ErrTransport   = errors.New("transport failure")
	ErrProtocol    = errors.New("protocol failure")
	ErrApplication = errors.New("application failure")
)

func (k FailureKind) String() string {
	switch k {
	case TransportFailure:
		return "transport"
	case ProtocolFailure:
		return "protocol"
	case ApplicationFailure:
		return "application"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case ProtocolFailure:
		return ErrProtocol
	case ApplicationFailure:
		return ErrApplication
	default:
		return ErrTransport
	}
}

// FetchError is returned by FetchAllStats for any failed cycle.
type FetchError struct {
	Kind     FailureKind
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ApplicationFailure:
		return fmt.Sprintf("Failed to fetch data (%s: %v)", e.Endpoint, e.Err)
	case ProtocolFailure:
		return fmt.Sprintf("invalid response from %s endpoint: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("request to %s endpoint failed: %v", e.Endpoint, e.Err)
	}
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is.
func (e *FetchError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf returns the failure kind of err, if it is a FetchError.
func KindOf(err error) (FailureKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
