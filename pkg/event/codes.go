package event

// Code identifies a PPME event type in the host capture layer's event table.
// Only the exit (_X) variants carry the parameters this module reads; the
// numeric values mirror the driver event table.
type Code uint16

const (
	GenericE        Code = 0
	GenericX        Code = 1
	OpenE           Code = 2
	OpenX           Code = 3
	ConnectE        Code = 22
	ConnectX        Code = 23
	CreatE          Code = 174
	CreatX          Code = 175
	CloneE          Code = 222 // clone, 20-parameter event version
	CloneX          Code = 223
	Accept5E        Code = 246 // accept, 5-parameter event version
	Accept5X        Code = 247
	Accept46E       Code = 248 // accept4, 6-parameter event version
	Accept46X       Code = 249
	ExecveE         Code = 292 // execve, 19-parameter event version
	ExecveX         Code = 293
	OpenatE         Code = 306 // openat, second event version
	OpenatX         Code = 307
	Openat2E        Code = 326
	Openat2X        Code = 327
	ExecveatE       Code = 330
	ExecveatX       Code = 331
	Clone3E         Code = 334
	Clone3X         Code = 335
	OpenByHandleAtE Code = 336
	OpenByHandleAtX Code = 337
)

var codeNames = map[Code]string{
	OpenX:           "open",
	CreatX:          "creat",
	ConnectX:        "connect",
	Accept5X:        "accept",
	Accept46X:       "accept4",
	OpenatX:         "openat",
	Openat2X:        "openat2",
	OpenByHandleAtX: "open_by_handle_at",
	ExecveX:         "execve",
	ExecveatX:       "execveat",
	CloneX:          "clone",
	Clone3X:         "clone3",
}

var codesByName = func() map[string]Code {
	m := make(map[string]Code, len(codeNames))
	for c, n := range codeNames {
		m[n] = c
	}
	return m
}()

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// CodeByName resolves a syscall name to its exit event code.
func CodeByName(name string) (Code, bool) {
	c, ok := codesByName[name]
	return c, ok
}

// FDProducing reports whether the event's result carries a new file
// descriptor.
func (c Code) FDProducing() bool {
	switch c {
	case OpenX, OpenatX, Openat2X, OpenByHandleAtX, CreatX, Accept5X, Accept46X, ConnectX:
		return true
	}
	return false
}

// FDParamSlot returns the parameter slot holding the produced fd.
// connect stores it in slot 2, every other fd-producing event in slot 0.
func (c Code) FDParamSlot() int {
	if c == ConnectX {
		return 2
	}
	return 0
}

// ProfileSupported reports whether behavior profiles may be applied to this
// event type: the fd-producing set plus the process-spawning syscalls.
func (c Code) ProfileSupported() bool {
	switch c {
	case ExecveX, ExecveatX, CloneX, Clone3X:
		return true
	}
	return c.FDProducing()
}
