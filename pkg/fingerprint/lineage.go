package fingerprint

import (
	"github.com/maxgio92/asketch/pkg/state"
)

// Hop caps for the session and process-group leader walks. Together with
// the termination at the init process they bound every traversal even if
// the host table is momentarily inconsistent.
const (
	sidLeaderMaxHops   = 9
	vpgidLeaderMaxHops = 5
)

// ancestor walks the parent chain exactly k times and returns the kth
// ancestor. The walk stops early, yielding nil, when the chain breaks or
// reaches the init process before the kth hop.
func (x *Extractor) ancestor(e *state.ThreadEntry, k uint32) *state.ThreadEntry {
	ptid := e.Ptid
	for j := uint32(0); j < k; j++ {
		lineage, ok := x.table.Entry(ptid)
		if !ok {
			return nil
		}
		if j == k-1 {
			return lineage
		}
		if ptid == 1 {
			return nil
		}
		ptid = lineage.Ptid
	}
	return nil
}

// parent returns the direct parent entry, if present.
func (x *Extractor) parent(e *state.ThreadEntry) *state.ThreadEntry {
	p, ok := x.table.Entry(e.Ptid)
	if !ok {
		return nil
	}
	return p
}

// leader walks ancestors while their group id (sid or vpgid) still equals
// the current thread's, up to maxHops; the last such ancestor is the
// session or process-group leader.
func (x *Extractor) leader(e *state.ThreadEntry, maxHops int, groupID func(*state.ThreadEntry) int64) *state.ThreadEntry {
	want := groupID(e)
	leader := e
	ptid := e.Ptid
	for j := 0; j < maxHops; j++ {
		lineage, ok := x.table.Entry(ptid)
		if !ok {
			break
		}
		if groupID(lineage) != want {
			break
		}
		ptid = lineage.Ptid
		leader = lineage
	}
	return leader
}

// lineageConcat concatenates the current thread's attribute with the
// attributes of its ancestors up to k hops inclusive.
func (x *Extractor) lineageConcat(e *state.ThreadEntry, k uint32, attr func(*state.ThreadEntry) string) string {
	out := attr(e)
	ptid := e.Ptid
	for j := uint32(0); j < k; j++ {
		lineage, ok := x.table.Entry(ptid)
		if !ok {
			break
		}
		out += attr(lineage)
		if j == k-1 {
			break
		}
		if ptid == 1 {
			break
		}
		ptid = lineage.Ptid
	}
	return out
}

// cmdline joins prefix and args with single spaces, skipping the separator
// while the accumulated string is still empty.
func cmdline(prefix string, args []string) string {
	s := prefix
	for _, a := range args {
		if s != "" {
			s += " "
		}
		s += a
	}
	return s
}
