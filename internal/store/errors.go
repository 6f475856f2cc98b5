// Package store holds what the storage backends share.
package store

import "errors"

// ErrNotFound is returned by every backend when a record does not exist.
var ErrNotFound = errors.New("not found")
