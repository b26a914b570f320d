package fingerprint

import (
	"strconv"
	"strings"

	"github.com/maxgio92/asketch/pkg/event"
	"github.com/maxgio92/asketch/pkg/profile"
	"github.com/maxgio92/asketch/pkg/state"
)

// Extractor evaluates behavior profiles against events, reading the host
// thread table and falling back to the raw event buffer when the table
// cannot serve a value.
type Extractor struct {
	table state.ThreadTable
}

type Option func(*Extractor)

func WithTable(t state.ThreadTable) Option {
	return func(x *Extractor) {
		x.table = t
	}
}

func NewExtractor(opts ...Option) *Extractor {
	x := new(Extractor)
	for _, f := range opts {
		f(x)
	}
	return x
}

// Extract evaluates the profile fields against evt and returns the
// concatenated fingerprint. A field that cannot be satisfied contributes an
// empty string. An fd-dependent field applied to a non-fd event clears the
// whole fingerprint accumulated so far; an empty result therefore signals
// "not applicable" to the caller.
func (x *Extractor) Extract(evt *event.Event, fields []profile.Field) string {
	entry, ok := x.entry(evt.Tid())
	if !ok {
		// The thread is not in the host table yet: degrade to decoding
		// values straight from the event buffer.
		var sb strings.Builder
		for _, f := range fields {
			switch {
			case f.ID == profile.FieldLiteral:
				sb.WriteString(f.Literal)
			case f.FDDependent() && !evt.Type().FDProducing():
				sb.Reset()
			default:
				sb.WriteString(fallbackValue(evt, f, ""))
			}
		}
		return sb.String()
	}

	var sb strings.Builder
	for _, f := range fields {
		v, wipe := x.fieldValue(evt, entry, f)
		if wipe {
			sb.Reset()
			continue
		}
		sb.WriteString(v)
	}
	return sb.String()
}

func (x *Extractor) entry(tid int64) (*state.ThreadEntry, bool) {
	if x.table == nil {
		return nil, false
	}
	return x.table.Entry(tid)
}

// fieldValue computes one selector's value string. The second return value
// requests clearing the whole fingerprint, raised by fd selectors applied
// to events outside their supported set.
func (x *Extractor) fieldValue(evt *event.Event, e *state.ThreadEntry, f profile.Field) (string, bool) {
	switch f.ID {
	case profile.FieldLiteral:
		return f.Literal, false

	case profile.FieldContainerID:
		return e.ContainerID, false
	case profile.FieldProcName:
		return e.Comm, false
	case profile.FieldProcPName:
		if p := x.parent(e); p != nil {
			return p.Comm, false
		}
		return "", false
	case profile.FieldProcAName:
		if f.ArgID < 1 {
			return e.Comm, false
		}
		if a := x.ancestor(e, f.ArgID); a != nil {
			return a.Comm, false
		}
		return "", false

	case profile.FieldProcArgs:
		return cmdline("", e.Args), false
	case profile.FieldProcCmdNArgs:
		return strconv.Itoa(len(e.Args)), false
	case profile.FieldProcCmdLenArgs:
		n := 0
		for _, a := range e.Args {
			n += len(a)
		}
		return strconv.Itoa(n), false
	case profile.FieldProcCmdline:
		return cmdline(e.Comm, e.Args), false
	case profile.FieldProcPCmdline:
		if p := x.parent(e); p != nil {
			return cmdline(p.Comm, p.Args), false
		}
		return "", false
	case profile.FieldProcACmdline:
		if f.ArgID < 1 {
			return cmdline(e.Comm, e.Args), false
		}
		if a := x.ancestor(e, f.ArgID); a != nil {
			return cmdline(a.Comm, a.Args), false
		}
		return "", false
	case profile.FieldProcExeline:
		return cmdline(e.Exe, e.Args), false

	case profile.FieldProcExe:
		return e.Exe, false
	case profile.FieldProcPExe:
		if p := x.parent(e); p != nil {
			return p.Exe, false
		}
		return "", false
	case profile.FieldProcAExe:
		if f.ArgID < 1 {
			return e.Exe, false
		}
		if a := x.ancestor(e, f.ArgID); a != nil {
			return a.Exe, false
		}
		return "", false

	case profile.FieldProcExepath:
		return e.ExePath, false
	case profile.FieldProcPExepath:
		if p := x.parent(e); p != nil {
			return p.ExePath, false
		}
		return "", false
	case profile.FieldProcAExepath:
		if f.ArgID < 1 {
			return e.ExePath, false
		}
		if a := x.ancestor(e, f.ArgID); a != nil {
			return a.ExePath, false
		}
		return "", false

	case profile.FieldProcCwd:
		return e.Cwd, false
	case profile.FieldProcTty:
		return strconv.FormatUint(uint64(e.Tty), 10), false

	case profile.FieldProcPid:
		return strconv.FormatInt(e.Pid, 10), false
	case profile.FieldProcPpid:
		if p := x.parent(e); p != nil {
			return strconv.FormatInt(p.Pid, 10), false
		}
		return "", false
	case profile.FieldProcApid:
		if f.ArgID < 1 {
			return strconv.FormatInt(e.Pid, 10), false
		}
		if a := x.ancestor(e, f.ArgID); a != nil {
			return strconv.FormatInt(a.Pid, 10), false
		}
		return "", false
	case profile.FieldProcVpid:
		return strconv.FormatInt(e.Vpid, 10), false
	case profile.FieldProcPvpid:
		if p := x.parent(e); p != nil {
			return strconv.FormatInt(p.Vpid, 10), false
		}
		return "", false

	case profile.FieldProcSid:
		return strconv.FormatInt(e.Sid, 10), false
	case profile.FieldProcSname:
		return x.leader(e, sidLeaderMaxHops, sid).Comm, false
	case profile.FieldProcSidExe:
		return x.leader(e, sidLeaderMaxHops, sid).Exe, false
	case profile.FieldProcSidExepath:
		return x.leader(e, sidLeaderMaxHops, sid).ExePath, false

	case profile.FieldProcVpgid:
		return strconv.FormatInt(e.Vpgid, 10), false
	case profile.FieldProcVpgidName:
		return x.leader(e, vpgidLeaderMaxHops, vpgid).Comm, false
	case profile.FieldProcVpgidExe:
		return x.leader(e, vpgidLeaderMaxHops, vpgid).Exe, false
	case profile.FieldProcVpgidExepath:
		return x.leader(e, vpgidLeaderMaxHops, vpgid).ExePath, false

	case profile.FieldProcEnv:
		if f.ArgName != "" {
			return envValue(e.Env, f.ArgName), false
		}
		return strings.Join(e.Env, " "), false

	case profile.FieldProcIsExeWritable:
		return bool01(e.ExeWritable), false
	case profile.FieldProcIsExeUpperLayer:
		return bool01(e.ExeUpperLayer), false
	case profile.FieldProcIsExeFromMemfd:
		return bool01(e.ExeFromMemfd), false
	case profile.FieldProcExeIno:
		return strconv.FormatUint(e.ExeIno, 10), false
	case profile.FieldProcExeInoCtime:
		return strconv.FormatUint(e.ExeInoCtime, 10), false
	case profile.FieldProcExeInoMtime:
		return strconv.FormatUint(e.ExeInoMtime, 10), false
	case profile.FieldProcIsSidLeader:
		return bool01(e.Sid == e.Vpid), false
	case profile.FieldProcIsVpgidLeader:
		return bool01(e.Vpgid == e.Vpid), false

	case profile.FieldFdNum:
		if !evt.Type().FDProducing() {
			return "", true
		}
		return strconv.FormatInt(e.LastEventFD, 10), false

	case profile.FieldFdName:
		if !evt.Type().FDProducing() {
			return "", true
		}
		return x.resolvedFDName(evt, e), false

	case profile.FieldFdDirectory, profile.FieldFdFilename:
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenatX, event.Openat2X, event.OpenByHandleAtX:
			name := x.resolvedFDName(evt, e)
			if f.ID == profile.FieldFdDirectory {
				return splitDirectory(name), false
			}
			return splitFilename(name), false
		case event.Accept5X, event.Accept46X, event.ConnectX:
			return "", false
		default:
			return "", true
		}

	case profile.FieldFdIno:
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenatX, event.Openat2X, event.OpenByHandleAtX:
			if fd, ok := e.FD(e.LastEventFD); ok {
				return strconv.FormatUint(fd.Ino, 10), false
			}
			return fallbackValue(evt, f, ""), false
		case event.Accept5X, event.Accept46X, event.ConnectX:
			return "", false
		default:
			return "", true
		}

	case profile.FieldFdDev:
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenatX, event.Openat2X, event.OpenByHandleAtX:
			if fd, ok := e.FD(e.LastEventFD); ok {
				return strconv.FormatUint(uint64(fd.Dev), 10), false
			}
			return fallbackValue(evt, f, ""), false
		case event.Accept5X, event.Accept46X, event.ConnectX:
			return "", false
		default:
			return "", true
		}

	case profile.FieldFdNameRaw:
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenatX, event.Openat2X, event.OpenByHandleAtX:
			if fd, ok := e.FD(e.LastEventFD); ok && fd.NameRaw != "" {
				return fd.NameRaw, false
			}
			return fallbackValue(evt, f, ""), false
		case event.Accept5X, event.Accept46X, event.ConnectX:
			return "", false
		default:
			return "", true
		}

	case profile.FieldCustomANameLineageConcat:
		return x.lineageConcat(e, f.ArgID, comm), false
	case profile.FieldCustomAExeLineageConcat:
		return x.lineageConcat(e, f.ArgID, exe), false
	case profile.FieldCustomAExepathLineageConcat:
		return x.lineageConcat(e, f.ArgID, exePath), false

	case profile.FieldCustomFdNamePart1, profile.FieldCustomFdNamePart2:
		switch evt.Type() {
		case event.OpenX, event.CreatX, event.OpenatX, event.Openat2X, event.OpenByHandleAtX:
			return "", false
		case event.Accept5X, event.Accept46X, event.ConnectX:
			name := lastFDName(e)
			if name == "" {
				name = fallbackValue(evt, f, "")
			}
			left, right, found := strings.Cut(name, "->")
			if !found {
				return "", false
			}
			if f.ID == profile.FieldCustomFdNamePart1 {
				return left, false
			}
			return right, false
		default:
			return "", true
		}
	}
	return "", false
}

// envValue returns the value of the first KEY=VALUE environment entry
// matching key, with surrounding whitespace trimmed. Keys are matched
// byte-wise; by convention they are ASCII.
func envValue(env []string, key string) string {
	for _, kv := range env {
		if len(kv) > len(key)+1 && kv[len(key)] == '=' && strings.HasPrefix(kv, key) {
			return strings.TrimSpace(kv[len(key)+1:])
		}
	}
	return ""
}

func bool01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func sid(e *state.ThreadEntry) int64 { return e.Sid }

func vpgid(e *state.ThreadEntry) int64 { return e.Vpgid }

func comm(e *state.ThreadEntry) string { return e.Comm }

func exe(e *state.ThreadEntry) string { return e.Exe }

func exePath(e *state.ThreadEntry) string { return e.ExePath }
