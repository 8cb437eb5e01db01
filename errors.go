package netstack

import (
	"github.com/m-lab/netstack/engine"
	"github.com/m-lab/netstack/store"
)

// Sentinel errors re-exported so callers never need to import engine or
// store directly to do an errors.Is check against them.
var (
	ErrNoWork                  = engine.ErrNoWork
	ErrUnsupportedPlatform     = engine.ErrUnsupportedPlatform
	ErrEnumerateUnstable       = store.ErrEnumerateUnstable
	ErrInvalidEnumerateFlags   = store.ErrInvalidEnumerateFlags
	ErrInvalidEnumerateCount   = store.ErrInvalidEnumerateCount
	ErrEnumerateBufferTooSmall = store.ErrEnumerateBufferTooSmall
	ErrQueueFull               = engine.ErrQueueFull
)
