package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePutAndEntry(t *testing.T) {
	table := NewTable()
	require.Equal(t, 0, table.Len())

	table.Put(&ThreadEntry{Tid: 42, Comm: "sh"})
	table.Put(&ThreadEntry{Tid: 43, Comm: "bash"})
	require.Equal(t, 2, table.Len())

	entry, ok := table.Entry(42)
	require.True(t, ok)
	assert.Equal(t, "sh", entry.Comm)

	_, ok = table.Entry(99)
	assert.False(t, ok)

	// Replacing an entry keeps the table keyed by tid.
	table.Put(&ThreadEntry{Tid: 42, Comm: "zsh"})
	entry, ok = table.Entry(42)
	require.True(t, ok)
	assert.Equal(t, "zsh", entry.Comm)
	assert.Equal(t, 2, table.Len())
}

func TestThreadEntryFD(t *testing.T) {
	entry := &ThreadEntry{
		Tid: 1,
		FDs: []*FDEntry{
			{FD: 3, Name: "/etc/hosts"},
			{FD: 7, Name: "/var/log/syslog"},
		},
	}

	fd, ok := entry.FD(7)
	require.True(t, ok)
	assert.Equal(t, "/var/log/syslog", fd.Name)

	_, ok = entry.FD(4)
	assert.False(t, ok)
}
