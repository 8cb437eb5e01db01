package engine

import (
	"errors"

	"github.com/m-lab/netstack/rtnl"
	"github.com/m-lab/netstack/store"
)

// Callback is invoked once per decoded event, after the store has already
// been updated. It must not block and must not call back into the engine or
// store synchronously in a way that could deadlock against the engine's own
// goroutines -- the same "never call a user callback while holding a lock"
// rule the original library documented for its per-kind pfxn/dfxn pointers.
type Callback func(*rtnl.Event)

// InitialEvents selects how Create handles the initial per-kind dump,
// mirroring the original library's INITIAL_EVENTS_{ASYNC,BLOCK,NONE} option.
type InitialEvents int

const (
	// InitialEventsBlock (the zero value) makes Create wait until every
	// enqueued dump request has drained before returning, so a caller can
	// rely on the store already reflecting the current kernel state the
	// moment Create returns.
	InitialEventsBlock InitialEvents = iota
	// InitialEventsAsync enqueues the dump requests and returns immediately;
	// the transmitter and receiver drain them concurrently with whatever
	// the caller does next.
	InitialEventsAsync
	// InitialEventsNone skips the initial dump entirely: the store starts
	// empty and is populated only by subsequent multicast notifications.
	InitialEventsNone
)

// Options configures a single engine instance.
type Options struct {
	// Namespace selects the target network namespace: "" for the caller's
	// current namespace, a decimal PID string, or a filesystem path
	// (/var/run/netns/<name> or /proc/<pid>/ns/net).
	Namespace string

	// InitialEvents selects ASYNC/BLOCK/NONE handling of the initial dump.
	// The zero value is InitialEventsBlock.
	InitialEvents InitialEvents

	// NoTrackLinks, NoTrackAddrs, NoTrackRoutes, NoTrackNeighs: true disables
	// storage for that kind, mirroring the original per-kind notrack bool in
	// netstack_opts (the zero value tracks everything). At least one kind
	// must remain tracked, or at least one Callback must be set, or Create
	// fails -- matching notrack.cpp's "can't disable everything" contract.
	NoTrackLinks, NoTrackAddrs, NoTrackRoutes, NoTrackNeighs bool

	OnLink  Callback
	OnAddr  Callback
	OnRoute Callback
	OnNeigh Callback

	// DiagFunc receives internal diagnostic messages (socket errors,
	// decode failures). Defaults to a function that writes to stderr via
	// the standard log package, matching netstack_stderr_diag.
	DiagFunc func(format string, args ...interface{})
}

// ErrNoWork is returned by Create when every kind is both untracked and has
// no callback: there would be nothing for the engine to do.
var ErrNoWork = errors.New("engine: at least one kind must be tracked or have a callback")

func (o *Options) validate() error {
	anyTracked := !o.NoTrackLinks || !o.NoTrackAddrs || !o.NoTrackRoutes || !o.NoTrackNeighs
	anyCallback := o.OnLink != nil || o.OnAddr != nil || o.OnRoute != nil || o.OnNeigh != nil
	if !anyTracked && !anyCallback {
		return ErrNoWork
	}
	return nil
}

func (o *Options) applyTracking(s *store.Store) {
	s.SetLinkTracking(!o.NoTrackLinks)
	s.SetTracking(rtnl.KindAddr, !o.NoTrackAddrs)
	s.SetTracking(rtnl.KindRoute, !o.NoTrackRoutes)
	s.SetTracking(rtnl.KindNeigh, !o.NoTrackNeighs)
}

func (o *Options) diag() func(string, ...interface{}) {
	if o.DiagFunc != nil {
		return o.DiagFunc
	}
	return StderrDiag
}
