// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ffutop/topology-server/internal/snapshot"
	"github.com/ffutop/topology-server/transport"
)

// Gateway exposes the snapshot service on one or more upstream transports.
type Gateway struct {
	Name      string
	Upstreams []transport.Upstream
	Service   *snapshot.Service
}

// NewGateway creates a new Gateway instance
func NewGateway(name string, upstreams []transport.Upstream, service *snapshot.Service) *Gateway {
	return &Gateway{
		Name:      name,
		Upstreams: upstreams,
		Service:   service,
	}
}

// Serve starts all upstream servers and blocks until ctx is canceled or an
// upstream fails. A failed upstream stops the others so the whole gateway
// can be restarted by its supervisor.
func (g *Gateway) Serve(ctx context.Context) error {
	if len(g.Upstreams) == 0 {
		return fmt.Errorf("gateway %s has no upstreams", g.Name)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(g.Upstreams))
	var wg sync.WaitGroup
	for i, us := range g.Upstreams {
		wg.Add(1)
		go func(ups transport.Upstream, idx int) {
			defer wg.Done()
			slog.Info("Starting upstream", "gateway", g.Name, "index", idx)
			if err := ups.Start(ctx, g.handleRequest); err != nil {
				slog.Error("Upstream stopped with error", "gateway", g.Name, "index", idx, "err", err)
				errCh <- err
			}
		}(us, i)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	// Graceful shutdown
	cancel()
	for _, us := range g.Upstreams {
		us.Close()
	}
	wg.Wait()
	return err
}

// handleRequest is the central dispatch function
func (g *Gateway) handleRequest(ctx context.Context, request []byte) ([]byte, error) {
	resp, err := g.Service.Handle(ctx, request)
	if err != nil {
		if errors.Is(err, snapshot.ErrUnrecognizedRequest) {
			slog.Warn("Unrecognized request", "gateway", g.Name, "request", string(request))
		} else {
			slog.Error("Snapshot request failed", "gateway", g.Name, "err", err)
		}
		return nil, err
	}
	return resp, nil
}

func (g *Gateway) String() string {
	return "gateway-" + g.Name
}
