package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTrip(t *testing.T) {
	evt := New(42, 1234, OpenatX,
		I64(5),
		I64(-100),
		Str("/etc/passwd"),
	)

	assert.Equal(t, uint64(42), evt.Ts())
	assert.Equal(t, int64(1234), evt.Tid())
	assert.Equal(t, OpenatX, evt.Type())
	assert.Equal(t, 3, evt.NParams())

	fd, ok := evt.ParamI64(0)
	require.True(t, ok)
	assert.Equal(t, int64(5), fd)

	dirfd, ok := evt.ParamI64(1)
	require.True(t, ok)
	assert.Equal(t, int64(-100), dirfd)

	name, ok := evt.ParamStr(2)
	require.True(t, ok)
	assert.Equal(t, "/etc/passwd", name)
}

func TestEventParamOutOfRange(t *testing.T) {
	evt := New(0, 1, ExecveX, I64(0))

	_, ok := evt.Param(1)
	assert.False(t, ok)
	_, ok = evt.Param(-1)
	assert.False(t, ok)
}

func TestEventParamOffsets(t *testing.T) {
	// Payload offsets are derived by summing the preceding lengths.
	evt := New(0, 1, OpenX, I64(3), Str("a"), U32(7), U64(11))

	s, ok := evt.ParamStr(1)
	require.True(t, ok)
	assert.Equal(t, "a", s)

	dev, ok := evt.ParamU32(2)
	require.True(t, ok)
	assert.Equal(t, uint32(7), dev)

	ino, ok := evt.ParamU64(3)
	require.True(t, ok)
	assert.Equal(t, uint64(11), ino)
}

func TestFromBuffer(t *testing.T) {
	evt := New(7, 2, ConnectX, Str("x"), U32(0), I64(9))

	decoded, err := FromBuffer(evt.buf)
	require.NoError(t, err)
	fd, ok := decoded.ParamI64(decoded.Type().FDParamSlot())
	require.True(t, ok)
	assert.Equal(t, int64(9), fd)

	_, err = FromBuffer([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestFDProducing(t *testing.T) {
	for _, c := range []Code{OpenX, OpenatX, Openat2X, OpenByHandleAtX, CreatX, Accept5X, Accept46X, ConnectX} {
		assert.True(t, c.FDProducing(), c.String())
		assert.True(t, c.ProfileSupported(), c.String())
	}
	for _, c := range []Code{ExecveX, ExecveatX, CloneX, Clone3X} {
		assert.False(t, c.FDProducing(), c.String())
		assert.True(t, c.ProfileSupported(), c.String())
	}
	assert.False(t, GenericX.ProfileSupported())

	assert.Equal(t, 2, ConnectX.FDParamSlot())
	assert.Equal(t, 0, OpenatX.FDParamSlot())
}

func TestCodeByName(t *testing.T) {
	c, ok := CodeByName("openat")
	require.True(t, ok)
	assert.Equal(t, OpenatX, c)

	_, ok = CodeByName("ptrace")
	assert.False(t, ok)
}
