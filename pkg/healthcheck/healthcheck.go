package healthcheck

import (
	"context"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"

	log "github.com/rs/zerolog"
)

// ReadyMsg is the single byte written to a probe once the pipeline is
// initialized and consuming events.
const ReadyMsg = 0x01

// Server answers readiness probes over a unix domain socket. Connections
// opened before readiness block until NotifyReadiness is called.
type Server struct {
	ln         net.Listener
	readyCh    chan struct{}
	socketPath string
	logger     log.Logger
}

func NewServer(socketPath string, logger log.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		readyCh:    make(chan struct{}),
		logger:     logger.With().Str("component", "healthcheck").Logger(),
	}
}

// Listen starts accepting probe connections on the unix socket.
func (s *Server) Listen(ctx context.Context) error {
	// Remove a stale socket from a previous run.
	os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return errors.Wrap(err, "failed to listen on unix socket")
	}
	s.ln = ln

	go s.acceptConnections(ctx)

	return nil
}

// NotifyReadiness unblocks every pending and future probe.
func (s *Server) NotifyReadiness() {
	s.logger.Debug().Msg("marking readiness")
	close(s.readyCh)
}

// Shutdown closes the listener and removes the socket.
func (s *Server) Shutdown() error {
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("error closing listener")
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove socket")
	}
	return nil
}

func (s *Server) acceptConnections(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("stopping accepting connections")
			return
		default:
			conn, err := s.ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn().Err(err).Msg("accept error")
				continue
			}
			go s.answerProbe(ctx, conn)
		}
	}
}

func (s *Server) answerProbe(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	select {
	case <-s.readyCh:
		if !s.connectionAlive(conn) {
			return
		}
		if _, err := conn.Write([]byte{ReadyMsg}); err != nil {
			if !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				s.logger.Debug().Err(err).Msg("failed to write ready message")
			}
		}
	case <-ctx.Done():
		return
	}
}

// connectionAlive peeks the connection with an immediate deadline to detect
// a probe that already hung up.
func (s *Server) connectionAlive(conn net.Conn) bool {
	conn.SetReadDeadline(time.Now())
	if _, err := conn.Read([]byte{}); err == io.EOF {
		return false
	}
	conn.SetReadDeadline(time.Time{})
	return true
}
