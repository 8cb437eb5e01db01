package engine

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/vishvananda/netns"
)

// ErrCantReadProc is returned when /proc is unreadable while resolving a
// namespace target, the same failure the teacher's namespaces.go reports
// under the name ErrCantReadProc.
var ErrCantReadProc = errors.New("engine: can't read /proc")

// resolveNamespace turns an Options.Namespace string into a netns.NsHandle.
// An empty string means "the current namespace." A pure integer string is
// treated as a PID, read via /proc/<pid>/ns/net -- the single-namespace-entry
// half of the teacher's namespaces.go parsing idiom (its multi-namespace
// /proc polling loop doesn't apply here: joining every namespace on the host
// is explicitly out of scope). Anything else is passed straight to
// netns.GetFromPath, which accepts both /var/run/netns/<name> paths and bind
// mounts.
func resolveNamespace(target string) (netns.NsHandle, error) {
	if target == "" {
		return netns.None(), nil
	}
	if pid, err := strconv.Atoi(target); err == nil {
		return netnsFromPid(pid)
	}
	return netns.GetFromPath(target)
}

func netnsFromPid(pid int) (netns.NsHandle, error) {
	path := fmt.Sprintf("/proc/%d/ns/net", pid)
	if _, err := os.Readlink(path); err != nil {
		return netns.None(), ErrCantReadProc
	}
	return netns.GetFromPath(path)
}

// withNamespace locks the calling goroutine's OS thread, switches into ns
// (if ns is valid), runs fn, and restores the original namespace before
// unlocking. This is the single place the event engine crosses network
// namespace boundaries, matching §4.3's namespace-scoping design note.
func withNamespace(ns netns.NsHandle, fn func() error) error {
	if !ns.IsOpen() {
		return fn()
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	if err != nil {
		return err
	}
	defer orig.Close()

	if err := netns.Set(ns); err != nil {
		return err
	}
	defer netns.Set(orig)

	return fn()
}

// namespaceLooksLikePath reports whether target is an absolute filesystem
// path. Options validation does not call it.
func namespaceLooksLikePath(target string) bool {
	return strings.HasPrefix(target, "/")
}
