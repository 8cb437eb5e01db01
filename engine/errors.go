package engine

import "errors"

// ErrUnsupportedPlatform is returned by Create on any non-Linux GOOS: the
// wire codec and event engine are rtnetlink-specific. This mirrors the
// teacher's collector_darwin.go stub Run, which likewise does nothing on
// darwin so the rest of the module still builds and tests there.
var ErrUnsupportedPlatform = errors.New("engine: rtnetlink event engine is only available on linux")
