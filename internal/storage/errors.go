package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by Insert when an article with the same identity
// has already been recorded. Callers are expected to check Exists first;
// seeing this error means two ingesters raced on the same identity.
var ErrDuplicate = errors.New("duplicate identity")
