package generator

import (
	"errors"
	"fmt"
)

// Kind classifies a failed generation call.
type Kind int

const (
	// KindNetwork covers everything before a status line arrives:
	// DNS, connect, TLS, timeouts, truncated bodies.
	KindNetwork Kind = iota
	// KindServer is a response with a non-2xx status.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is matching against *Error.
var (
	ErrNetwork = errors.New("generation endpoint unreachable")
	ErrServer  = errors.New("generation endpoint returned an error status")
)

// Error is returned by Client.Generate for every failed call.
type Error struct {
	Kind       Kind
	StatusCode int    // KindServer only
	Body       string // KindServer only, truncated
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if e.Body != "" {
			return fmt.Sprintf("generation failed with status %d: %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("generation failed with status %d", e.StatusCode)
	default:
		return fmt.Sprintf("generation request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNetwork) and errors.Is(err, ErrServer) match by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}
