package display

import "fmt"

// Status is the phase of a reconnect loop.
type Status int

// Reconnect phases. Exhausted and Cancelled are terminal.
const (
	StatusConnecting Status = iota
	StatusConnected
	StatusRetrying
	StatusExhausted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusRetrying:
		return "retrying"
	case StatusExhausted:
		return "exhausted"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusExhausted || s == StatusCancelled
}

// State is a snapshot of the reconnect loop.
type State struct {
	// Attempt counts consecutive failed connections since the last success.
	Attempt int
	Ceiling int
	Status  Status

	// Reason is the last disconnect or dial error.
	Reason error
}

type event int

const (
	eventConnected event = iota
	eventDisconnected
	eventRetry
	eventCancel
)

// apply is the only place State changes. Events that make no sense in the
// current phase leave it untouched.
func (s State) apply(ev event, reason error) State {
	if s.Status.Terminal() {
		return s
	}

	switch ev {
	case eventCancel:
		s.Status = StatusCancelled
	case eventConnected:
		if s.Status == StatusConnecting {
			s.Status = StatusConnected
			s.Attempt = 0
			s.Reason = nil
		}
	case eventDisconnected:
		if s.Status == StatusConnecting || s.Status == StatusConnected {
			s.Attempt++
			s.Reason = reason

			if s.Attempt >= s.Ceiling {
				s.Status = StatusExhausted
			} else {
				s.Status = StatusRetrying
			}
		}
	case eventRetry:
		if s.Status == StatusRetrying {
			s.Status = StatusConnecting
		}
	}

	return s
}
