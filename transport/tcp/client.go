// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

const (
	tcpTimeout = 10 * time.Second
)

// Client sends one request per connection and reads the response until
// the server closes the connection.
type Client struct {
	Address string
	Timeout time.Duration
}

// NewClient allocates and initializes a TCP Client.
func NewClient(address string) *Client {
	return &Client{
		Address: address,
		Timeout: tcpTimeout,
	}
}

// Fetch sends request and returns the full response. A server that rejects
// the request closes the connection without reply, which yields an empty
// response and a nil error.
func (c *Client) Fetch(ctx context.Context, request []byte) ([]byte, error) {
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.Address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	slog.Debug("recv from snapshot server", "addr", c.Address, "bytes", len(resp))
	return resp, nil
}
