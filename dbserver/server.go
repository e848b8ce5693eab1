// Package dbserver exposes a KeyedStore over a small length-prefixed TCP
// protocol: one op-code byte followed by a binary-encoded body.
package dbserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/arvsh/lynxdb/kvtree"
)

// Server accepts connections and dispatches requests against a store.
type Server struct {
	addr     string
	listener net.Listener

	store kvtree.KeyedStore

	shutdown     chan struct{}
	shutdownOnce *sync.Once
}

// New binds addr and returns a Server ready to Run.
func New(addr string, store kvtree.KeyedStore) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		store:        store,
		listener:     listener,
		addr:         addr,
		shutdown:     make(chan struct{}),
		shutdownOnce: &sync.Once{},
	}, nil
}

func handleShutdown(conn net.Conn) {
	message := encodeShutdownMessage()
	if _, err := conn.Write(message); err != nil {
		slog.Error(err.Error(), "msg", "error while sending shutdown message")
	}
	if err := conn.Close(); err != nil {
		slog.Error(err.Error(), "msg", "error while closing connection")
	}
}

func sendErrorResponse(conn net.Conn, err error, message string) {
	slog.Error(err.Error(), "msg", message)
	if _, err2 := conn.Write(encodeErrorResponse(err)); err2 != nil {
		slog.Error(err2.Error(), "msg", "error while writing to connection")
	}
}

func (s *Server) handleRequest(conn net.Conn) {
	request, err := readRequest(conn)

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return
	}
	if err != nil {
		sendErrorResponse(conn, err, "error while reading request")
		return
	}

	switch request.opCode {

	case opPing:
		if _, err := conn.Write(encodeOKResponse()); err != nil {
			slog.Error(err.Error(), "msg", "error while sending OK response")
		}

	case opInsert:
		key, value, err := decodeInsertRequestBody(request.body)
		if err != nil {
			sendErrorResponse(conn, err, "error while decoding insert request")
			return
		}
		if err := s.store.Insert(key, value); err != nil {
			sendErrorResponse(conn, err, "error occurred in data store")
			return
		}
		if _, err := conn.Write(encodeOKResponse()); err != nil {
			slog.Error(err.Error(), "msg", "error while writing to conn")
		}

	case opDelete:
		key, err := decodeKeyRequestBody(request.body)
		if err != nil {
			sendErrorResponse(conn, err, "error while decoding delete request")
			return
		}
		if err := s.store.Delete(key); err != nil {
			sendErrorResponse(conn, err, "error occurred in data store")
			return
		}
		if _, err := conn.Write(encodeOKResponse()); err != nil {
			slog.Error(err.Error(), "msg", "error while writing to conn")
		}

	case opGet:
		key, err := decodeKeyRequestBody(request.body)
		if err != nil {
			sendErrorResponse(conn, err, "error while decoding get request")
			return
		}
		value, err := s.store.Get(key)
		if err != nil {
			sendErrorResponse(conn, err, "error occurred in data store")
			return
		}
		if _, err := conn.Write(encodeGetResponse(key, value)); err != nil {
			slog.Error(err.Error(), "msg", "error while writing to conn")
		}

	case opClose:
		if _, err := conn.Write(encodeOKResponse()); err != nil {
			slog.Error(err.Error(), "msg", "error while writing to conn")
		}
		if err := conn.Close(); err != nil {
			slog.Error(err.Error(), "msg", "error while closing connection")
		}

	case opShutdown:
		slog.Info("server received shutdown message")
		s.Shutdown()

	default:
		sendErrorResponse(conn, fmt.Errorf("invalid op code %q", request.opCode), "invalid op code")
	}
}

func (s *Server) handleClient(conn net.Conn, wg *sync.WaitGroup) {
	defer wg.Done()
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	for {
		select {
		case <-s.shutdown:
			handleShutdown(conn)
			return
		default:
			s.handleRequest(conn)
		}
	}
}

func (s *Server) listen(listenerWaitGroup, clientWaitGroup *sync.WaitGroup) {
	defer listenerWaitGroup.Done()
	for {
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			slog.Error(err.Error(), "msg", "error accepting connection")
			continue
		}
		slog.Info("client joined", "remote", conn.RemoteAddr().String())
		clientWaitGroup.Add(1)
		go s.handleClient(conn, clientWaitGroup)
	}
}

// Run blocks, serving connections until Shutdown is called.
func (s *Server) Run() {
	clientWaitGroup := &sync.WaitGroup{}
	listenerWaitGroup := &sync.WaitGroup{}

	listenerWaitGroup.Add(1)
	go s.listen(listenerWaitGroup, clientWaitGroup)

	listenerWaitGroup.Wait()
	clientWaitGroup.Wait()
}

// Shutdown closes the listener and the underlying store exactly once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		_ = s.listener.Close()
		if err := s.store.Close(); err != nil {
			slog.Error(err.Error(), "msg", "error while closing data store")
		}
		close(s.shutdown)
	})
}
