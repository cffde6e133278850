// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ffutop/topology-server/internal/metrics"
	"github.com/ffutop/topology-server/transport"
)

// MaxRequestSize is the largest accepted request. Requests carry a bare
// command token without framing.
const MaxRequestSize = 1024

// DefaultReadGrace bounds the wait for the rest of a request that arrived
// split over several segments.
const DefaultReadGrace = 200 * time.Millisecond

// Server implements a one-shot request/response TCP server.
//
// Requests are unframed. The server keeps reading until it holds at least
// RequestSize bytes, the client half-closes, or no more data arrives within
// ReadGrace. A RequestSize of zero means a single read.
type Server struct {
	Address     string
	Handler     transport.RequestHandler
	RequestSize int
	ReadGrace   time.Duration

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new TCP Server.
func NewServer(address string) *Server {
	return &Server{
		Address:   address,
		ReadGrace: DefaultReadGrace,
	}
}

// Start starts the TCP server.
func (s *Server) Start(ctx context.Context, handler transport.RequestHandler) error {
	s.Handler = handler
	listener, err := net.Listen("tcp", s.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Address, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	slog.Info("Snapshot TCP server listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Check if closed
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("Failed to accept connection", "err", err)
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

// Close closes the server listener.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		err := s.listener.Close()
		s.listener = nil
		return err
	}
	return nil
}

// handleConnection serves exactly one request and closes the connection.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()
	slog.Info("New TCP client connected", "addr", conn.RemoteAddr())

	buf := make([]byte, MaxRequestSize+1) // +1 to detect overflow
	n, err := s.readRequest(conn, buf)
	if err != nil {
		if err == io.EOF {
			slog.Info("TCP client disconnected without request", "addr", conn.RemoteAddr())
		} else {
			slog.Error("Failed to read from connection", "addr", conn.RemoteAddr(), "err", err)
		}
		return
	}

	if n > MaxRequestSize {
		slog.Error("Invalid request length", "addr", conn.RemoteAddr(), "length", n)
		return
	}

	if s.Handler == nil {
		slog.Error("No handler defined for TCP server")
		return
	}

	resp, err := s.Handler(ctx, buf[:n])
	if err != nil {
		slog.Debug("Request rejected, closing connection", "addr", conn.RemoteAddr(), "err", err)
		return
	}

	if _, err := conn.Write(resp); err != nil {
		slog.Error("Failed to write response to connection", "addr", conn.RemoteAddr(), "err", err)
		return
	}
	slog.Info("Response sent", "addr", conn.RemoteAddr(), "bytes", len(resp))
}

// readRequest fills buf with the request. It returns io.EOF only when the
// client sent nothing at all.
func (s *Server) readRequest(conn net.Conn, buf []byte) (int, error) {
	n, err := conn.Read(buf)
	if err != nil {
		return 0, err
	}
	for n < s.RequestSize && n < len(buf) && s.ReadGrace > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.ReadGrace)); err != nil {
			return 0, err
		}
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			var netErr net.Error
			if err == io.EOF || (errors.As(err, &netErr) && netErr.Timeout()) {
				break
			}
			return 0, err
		}
	}
	conn.SetReadDeadline(time.Time{})
	return n, nil
}
