// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/ffutop/topology-server/internal/metrics"
	"github.com/ffutop/topology-server/internal/store"
	"github.com/ffutop/topology-server/topology"
)

// CommandGetData is the default request token.
const CommandGetData = "GET_DATA"

// ErrUnrecognizedRequest is returned for any request other than the command.
// The protocol has no error reply: the connection is closed without one.
var ErrUnrecognizedRequest = errors.New("snapshot: unrecognized request")

// Entry is one stored block in the aggregate response.
type Entry struct {
	BlockID int             `json:"block_id"`
	Data    *topology.Block `json:"data_json"`
}

// Response is the aggregate snapshot document.
type Response struct {
	Blocks []Entry `json:"blocks"`
}

// Service answers snapshot requests from the store. It never parses
// documents or writes to the store.
type Service struct {
	storage store.Storage
	command []byte
}

// NewService creates a Service recognizing command. An empty command
// means CommandGetData.
func NewService(storage store.Storage, command string) *Service {
	if command == "" {
		command = CommandGetData
	}
	return &Service{
		storage: storage,
		command: []byte(command),
	}
}

// Aggregate reads every stored snapshot and decodes it into the response.
// Records that cannot be read or decoded are logged and left out.
func (s *Service) Aggregate(ctx context.Context) (*Response, error) {
	resp := &Response{Blocks: []Entry{}}
	for rec, err := range s.storage.ScanAll(ctx) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Error("Failed to read snapshot record", "err", err)
			continue
		}
		block, err := topology.Unmarshal(rec.Payload)
		if err != nil {
			slog.Error("Failed to decode snapshot", "block_id", rec.BlockID, "err", err)
			continue
		}
		resp.Blocks = append(resp.Blocks, Entry{BlockID: rec.BlockID, Data: block})
	}
	return resp, nil
}

// Handle answers one request. It returns ErrUnrecognizedRequest unless the
// request equals the command byte for byte.
func (s *Service) Handle(ctx context.Context, request []byte) ([]byte, error) {
	if !bytes.Equal(request, s.command) {
		metrics.Requests.WithLabelValues("unrecognized").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedRequest, request)
	}

	resp, err := s.Aggregate(ctx)
	if err != nil {
		metrics.Requests.WithLabelValues("error").Inc()
		return nil, err
	}
	data, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		metrics.Requests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to encode snapshot response: %w", err)
	}

	metrics.Requests.WithLabelValues("ok").Inc()
	metrics.ResponseBytes.Observe(float64(len(data)))
	slog.Debug("Snapshot response assembled", "blocks", len(resp.Blocks), "bytes", len(data))
	return data, nil
}
