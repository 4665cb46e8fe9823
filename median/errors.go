package median

import "errors"

// Sentinel errors returned by this package. Callers should use errors.Is
// rather than comparing values directly, since wrapped forms are common.
var (
	// ErrInvalidWindow is returned when the window half-widths cannot fit
	// inside the chosen (or given) block size: 2*hx+1 >= b or 2*hy+1 >= b.
	ErrInvalidWindow = errors.New("median: window does not fit inside block size")

	// ErrInvalidDim is returned for an empty image (X == 0 or Y == 0).
	ErrInvalidDim = errors.New("median: image dimensions must be positive")

	// ErrAllocationFailed is returned when per-worker scratch buffers
	// could not be allocated.
	ErrAllocationFailed = errors.New("median: failed to allocate worker scratch")
)
