//go:build !linux

package engine

import (
	"github.com/m-lab/netstack/rtnl"
	"github.com/m-lab/netstack/store"
)

// Engine is an opaque, unusable placeholder on non-Linux platforms.
type Engine struct{}

// Create always fails on non-Linux platforms; see ErrUnsupportedPlatform.
func Create(opts Options, st *store.Store) (*Engine, error) {
	return nil, ErrUnsupportedPlatform
}

// Close is a no-op, present so callers can defer it unconditionally.
func (e *Engine) Close() error { return nil }

// Refresh always fails on non-Linux platforms; see ErrUnsupportedPlatform.
func (e *Engine) Refresh(kind rtnl.Kind) error { return ErrUnsupportedPlatform }
