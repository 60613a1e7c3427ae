package state

import "errors"

// ErrInvalidKey is returned when a key outside the fixed enumeration
// (retry, debounce, override, todo, quota) is requested.
var ErrInvalidKey = errors.New("state: invalid key")

// ErrStoreIO is returned when creating the state directory, opening or
// locking a lock file, or writing a record fails (permission errors, disk
// full, etc). A data file that is missing, unreadable, or holds corrupt
// JSON is never reported as this error — it reads as an empty record
// instead (see Store.Read).
var ErrStoreIO = errors.New("state: storage I/O failure")
