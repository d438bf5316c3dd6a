package notify

import "errors"

// Presentation rejections. They are expected control flow, not faults:
// callers treat them as "do not present now".
var (
	// ErrBusy is returned while another notification is being presented.
	ErrBusy = errors.New("notification already being presented")

	// ErrAlreadySeen is returned for an item the user has already answered.
	ErrAlreadySeen = errors.New("notification already seen")
)

// ErrHandleClosed is returned when a presentation handle is resolved twice
// or resolved after being cancelled.
var ErrHandleClosed = errors.New("presentation handle already closed")

// IsRejection reports whether err is an expected presentation rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrAlreadySeen)
}

// rejectionReason names a rejection for logs and metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrAlreadySeen):
		return "already_seen"
	default:
		return "error"
	}
}
