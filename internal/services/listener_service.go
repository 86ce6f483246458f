package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/benmeehan/tracker-gateway/internal/protocols"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxFrameSize bounds a single frame; longer input closes the connection.
const maxFrameSize = 64 * 1024

// ListenerService accepts tracker connections for one protocol, splits the
// stream into frames and hands them to the protocol decoder in arrival order.
type ListenerService struct {
	// Configuration fields
	address   string
	delimiter []byte

	// Dependencies
	decoder protocols.Decoder
	sink    PositionSink
	logger  zerolog.Logger

	// Internal state management
	listener net.Listener
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewListenerService creates a listener for decoder on address.
func NewListenerService(address, delimiter string, decoder protocols.Decoder, sink PositionSink,
	logger zerolog.Logger) *ListenerService {
	return &ListenerService{
		address:   address,
		delimiter: []byte(delimiter),
		decoder:   decoder,
		sink:      sink,
		logger:    logger.With().Str("protocol", decoder.Protocol()).Logger(),
		conns:     make(map[net.Conn]struct{}),
	}
}

// Start opens the listening socket and begins accepting connections.
func (ls *ListenerService) Start() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ctx != nil {
		ls.logger.Warn().Msg("ListenerService is already running")
		return fmt.Errorf("%s listener is already running", ls.decoder.Protocol())
	}
	if len(ls.delimiter) == 0 {
		return errors.New("frame delimiter must not be empty")
	}

	listener, err := net.Listen("tcp", ls.address)
	if err != nil {
		ls.logger.Error().Err(err).Str("address", ls.address).Msg("Failed to listen")
		return err
	}

	ls.listener = listener
	ls.ctx, ls.cancel = context.WithCancel(context.Background())

	ls.wg.Add(1)
	go func(ctx context.Context, l net.Listener) {
		defer ls.wg.Done()
		ls.acceptLoop(ctx, l)
	}(ls.ctx, listener)

	ls.logger.Info().Str("address", listener.Addr().String()).Msg("ListenerService started")
	return nil
}

// Stop closes the listener and every open connection, then waits for the handlers.
func (ls *ListenerService) Stop() error {
	ls.mu.Lock()
	if ls.ctx == nil {
		ls.mu.Unlock()
		ls.logger.Warn().Msg("ListenerService is not running")
		return fmt.Errorf("%s listener is not running", ls.decoder.Protocol())
	}

	ls.cancel()
	err := ls.listener.Close()
	for conn := range ls.conns {
		conn.Close()
	}
	ls.ctx = nil
	ls.cancel = nil
	ls.mu.Unlock()

	ls.wg.Wait()

	ls.logger.Info().Msg("ListenerService stopped")
	return err
}

// Addr returns the bound address, or nil when not running.
func (ls *ListenerService) Addr() net.Addr {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.ctx == nil {
		return nil
	}
	return ls.listener.Addr()
}

// acceptLoop runs until ctx is cancelled or l is closed.
func (ls *ListenerService) acceptLoop(ctx context.Context, l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			ls.logger.Error().Err(err).Msg("Failed to accept connection")
			continue
		}

		ls.mu.Lock()
		if ctx.Err() != nil {
			ls.mu.Unlock()
			conn.Close()
			return
		}
		ls.conns[conn] = struct{}{}
		ls.wg.Add(1)
		ls.mu.Unlock()

		go func() {
			defer ls.wg.Done()
			ls.handleConnection(conn)
		}()
	}
}

// handleConnection owns the session of one connection for its whole life.
func (ls *ListenerService) handleConnection(conn net.Conn) {
	logger := ls.logger.With().
		Str("conn_id", uuid.New().String()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	defer func() {
		ls.mu.Lock()
		delete(ls.conns, conn)
		ls.mu.Unlock()
		conn.Close()
		logger.Debug().Msg("Connection closed")
	}()

	logger.Debug().Msg("Connection accepted")
	session := identity.NewSession()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)
	scanner.Split(splitFrames(ls.delimiter))

	for scanner.Scan() {
		frame := strings.Trim(scanner.Text(), "\r\n")
		if frame == "" {
			continue
		}

		result := ls.decoder.Decode(session, conn, frame)
		switch result.Outcome {
		case protocols.OutcomeDecoded:
			for _, position := range result.Positions {
				if err := ls.sink.Publish(position); err != nil {
					logger.Error().Err(err).Str("device_id", position.DeviceID).Msg("Failed to hand over position")
				}
			}
		case protocols.OutcomeRejected:
			logger.Debug().Err(result.Reason).Str("frame", frame).Msg("Frame rejected")
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Warn().Err(err).Msg("Connection read failed")
	}
}

// splitFrames splits a stream on delimiter, dropping the delimiter.
func splitFrames(delimiter []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, delimiter); i >= 0 {
			return i + len(delimiter), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
