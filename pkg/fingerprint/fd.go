package fingerprint

import (
	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/profile"
	"github.com/maxgio92/asketch/pkg/state"
)

// AtFdCwd is the sentinel dirfd value meaning "resolve against the
// thread's cwd" (AT_FDCWD as delivered by the driver).
const AtFdCwd = -100

// lastFDName reads the cached name of the thread's last-event fd from the
// fd subtable.
func lastFDName(e *state.ThreadEntry) string {
	if fd, ok := e.FD(e.LastEventFD); ok {
		return fd.Name
	}
	return ""
}

// openatBase resolves the directory an openat-family relative path is
// joined onto: the dirfd entry's name, or the thread's cwd for AT_FDCWD.
func (x *Extractor) openatBase(evt *event.Event, e *state.ThreadEntry) string {
	dirfd, ok := evt.ParamI64(1)
	if !ok {
		return ""
	}
	if dirfd == AtFdCwd {
		return e.Cwd
	}
	if fd, ok := e.FD(dirfd); ok {
		return fd.Name
	}
	return ""
}

// resolvedFDName returns the full path of the event's fd: the cached
// fd-table name when present, otherwise re-derived from the raw event
// parameters with relative paths resolved against the proper base
// directory.
func (x *Extractor) resolvedFDName(evt *event.Event, e *state.ThreadEntry) string {
	if name := lastFDName(e); name != "" {
		return name
	}
	field := profile.Field{ID: profile.FieldFdName}
	switch evt.Type() {
	case event.OpenX, event.CreatX:
		return fallbackValue(evt, field, e.Cwd)
	case event.OpenatX, event.Openat2X:
		return fallbackValue(evt, field, x.openatBase(evt, e))
	default:
		return fallbackValue(evt, field, "")
	}
}
