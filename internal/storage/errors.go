package storage

import "errors"

// ErrNotFound is returned when a seen record or setting does not exist.
var ErrNotFound = errors.New("not found")
