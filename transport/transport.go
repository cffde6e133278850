// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package transport

import (
	"context"
)

// RequestHandler handles one request/response turn.
// It receives the raw request bytes and returns the raw response.
// A non-nil error means no response is written and the connection is closed.
type RequestHandler func(ctx context.Context, request []byte) ([]byte, error)

// Upstream represents a source of requests (clients connected to us).
// It acts as a Server.
type Upstream interface {
	// Start starts the server and blocks. It should be called in a goroutine.
	Start(ctx context.Context, handler RequestHandler) error
	Close() error
}
