package healthcheck

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "probe.sock")
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return NewServer(socketPath, logger), socketPath
}

func TestProbeAnsweredAfterReadiness(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, socketPath := testServer(t)
	require.NoError(t, s.Listen(ctx))
	defer s.Shutdown()

	s.NotifyReadiness()

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(ReadyMsg), buf[0])
}

func TestProbeBlocksUntilReadiness(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, socketPath := testServer(t)
	require.NoError(t, s.Listen(ctx))
	defer s.Shutdown()

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	// Not ready yet: a short read deadline must expire empty-handed.
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	require.Error(t, err)

	s.NotifyReadiness()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(ReadyMsg), buf[0])
}

func TestShutdownRemovesSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, socketPath := testServer(t)
	require.NoError(t, s.Listen(ctx))
	require.NoError(t, s.Shutdown())

	_, err := os.Stat(socketPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
