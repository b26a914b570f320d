package fingerprint

import (
	"strconv"

	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/profile"
)

// Raw parameter slots of the fd-producing exit events, per the driver
// event table.
//
//	open/creat:          fd(0) name(1) flags(2) mode(3) dev(4) ino(5)
//	openat/openat2:      fd(0) dirfd(1) name(2) ... dev(6) ino(7)
//	open_by_handle_at:   fd(0) mountfd(1) flags(2) path(3) dev(4) ino(5)
//	connect:             res(0) tuple(1) fd(2)

// fallbackValue re-derives a field straight from the packed event buffer.
// Only fd-related selectors have buffer fallbacks; anything else yields an
// empty string. base is the directory relative paths are resolved against.
func fallbackValue(evt *event.Event, f profile.Field, base string) string {
	switch f.ID {
	case profile.FieldFdNum:
		var slot int
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenatX, event.Openat2X,
			event.OpenByHandleAtX, event.Accept5X, event.Accept46X:
			slot = 0
		case event.ConnectX:
			slot = 2
		default:
			return ""
		}
		fd, ok := evt.ParamI64(slot)
		if !ok {
			return ""
		}
		return strconv.FormatInt(fd, 10)

	case profile.FieldFdName, profile.FieldFdDirectory, profile.FieldFdFilename:
		switch evt.Type() {
		case event.OpenX, event.CreatX:
			name, ok := evt.ParamStr(1)
			if !ok {
				return ""
			}
			return concatenatePaths(base, name)
		case event.OpenatX, event.Openat2X:
			name, ok := evt.ParamStr(2)
			if !ok {
				return ""
			}
			return concatenatePaths(base, name)
		case event.OpenByHandleAtX:
			name, ok := evt.ParamStr(3)
			if !ok {
				return ""
			}
			return concatenatePaths("", name)
		}
		// Socket fd names live in the host's socket info, which has no
		// raw-parameter equivalent.
		return ""

	case profile.FieldFdIno:
		var slot int
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenByHandleAtX:
			slot = 5
		case event.OpenatX, event.Openat2X:
			slot = 7
		default:
			return ""
		}
		ino, ok := evt.ParamU64(slot)
		if !ok {
			return ""
		}
		return strconv.FormatUint(ino, 10)

	case profile.FieldFdDev:
		var slot int
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenByHandleAtX:
			slot = 4
		case event.OpenatX, event.Openat2X:
			slot = 6
		default:
			return ""
		}
		dev, ok := evt.ParamU32(slot)
		if !ok {
			return ""
		}
		return strconv.FormatUint(uint64(dev), 10)

	case profile.FieldFdNameRaw:
		var slot int
		switch evt.Type() {
		case event.OpenX, event.CreatX:
			slot = 1
		case event.OpenatX, event.Openat2X:
			slot = 2
		case event.OpenByHandleAtX:
			slot = 3
		default:
			return ""
		}
		name, ok := evt.ParamStr(slot)
		if !ok {
			return ""
		}
		return name
	}
	return ""
}
