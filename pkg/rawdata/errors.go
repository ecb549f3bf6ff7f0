package rawdata

import "errors"

// ErrOutOfMemory is returned by UpdateConfig when the requested
// reservations would exceed the global byte cap.
var ErrOutOfMemory = errors.New("rawdata: requested reservations exceed overall byte cap")
