package state

import (
	"sync"
)

// ThreadTable is the host-owned process and thread state table, keyed by
// thread id. The plugin reads it on the parse and extract paths and stores
// one custom per-thread field (LastEventFD) in its entries.
type ThreadTable interface {
	Entry(tid int64) (*ThreadEntry, bool)
}

// ThreadEntry mirrors the subset of the host thread table the fingerprint
// extractor consumes. The parent chain through Ptid forms a tree rooted at
// the init process (tid 1).
type ThreadEntry struct {
	Tid   int64  `json:"tid"`
	Pid   int64  `json:"pid"`
	Ptid  int64  `json:"ptid"`
	Sid   int64  `json:"sid"`
	Vtid  int64  `json:"vtid"`
	Vpid  int64  `json:"vpid"`
	Vpgid int64  `json:"vpgid"`
	Tty   uint32 `json:"tty"`

	Comm        string `json:"comm"`
	Exe         string `json:"exe"`
	ExePath     string `json:"exe_path"`
	Cwd         string `json:"cwd"`
	ContainerID string `json:"container_id"`

	ExeWritable   bool   `json:"exe_writable"`
	ExeUpperLayer bool   `json:"exe_upper_layer"`
	ExeFromMemfd  bool   `json:"exe_from_memfd"`
	ExeIno        uint64 `json:"exe_ino"`
	ExeInoCtime   uint64 `json:"exe_ino_ctime"`
	ExeInoMtime   uint64 `json:"exe_ino_mtime"`

	Args []string   `json:"args"`
	Env  []string   `json:"env"`
	FDs  []*FDEntry `json:"fds"`

	// LastEventFD is the plugin-owned custom field: the fd produced by
	// the last fd-producing event observed on this thread.
	LastEventFD int64 `json:"lastevent_fd"`
}

// FD returns the fd subtable entry for fd.
func (t *ThreadEntry) FD(fd int64) (*FDEntry, bool) {
	for _, e := range t.FDs {
		if e.FD == fd {
			return e, true
		}
	}
	return nil, false
}

// FDEntry mirrors one row of the host fd subtable.
type FDEntry struct {
	FD        int64  `json:"fd"`
	OpenFlags uint32 `json:"open_flags"`
	Name      string `json:"name"`
	NameRaw   string `json:"name_raw"`
	OldName   string `json:"old_name"`
	Flags     uint32 `json:"flags"`
	Dev       uint32 `json:"dev"`
	MountID   uint32 `json:"mount_id"`
	Ino       uint64 `json:"ino"`
	Pid       int64  `json:"pid"`
}

// Table is an in-memory ThreadTable, standing in for the host state engine
// in tests and in the replay tool. The host serializes events per thread
// id; the lock only protects the map itself.
type Table struct {
	mu      sync.RWMutex
	entries map[int64]*ThreadEntry
}

func NewTable() *Table {
	return &Table{entries: make(map[int64]*ThreadEntry)}
}

func (t *Table) Put(e *ThreadEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[e.Tid] = e
}

func (t *Table) Entry(tid int64) (*ThreadEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[tid]
	return e, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
