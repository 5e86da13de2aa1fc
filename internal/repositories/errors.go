package repositories

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStockConflict is returned when a guarded stock update matched no row:
// another writer changed the counters between our read and write.
var ErrStockConflict = errors.New("stock was modified concurrently, please retry")

// ErrDuplicate is returned on unique-constraint violations (duplicate
// product mapping, duplicate dc_no from a concurrent numbering race).
var ErrDuplicate = errors.New("record already exists")
