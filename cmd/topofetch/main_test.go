// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffutop/topology-server/internal/snapshot"
	"github.com/ffutop/topology-server/transport/tcp"
)

const sampleResponse = `{
    "blocks": [
        {
            "block_id": 7,
            "data_json": {
                "block_id": 7,
                "name": "Rack A",
                "ip": "10.0.0.7",
                "board_count": 1,
                "boards": [
                    {
                        "id": 70,
                        "num": 1,
                        "name": "Line card",
                        "port_count": 2,
                        "ports": [
                            {"id": 700, "num": 1, "media": 1, "signal": 2},
                            {"id": 701, "num": 2, "media": 3, "signal": 4}
                        ]
                    }
                ]
            }
        }
    ]
}`

func startServer(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := tcp.NewServer(addr)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Start(ctx, func(ctx context.Context, request []byte) ([]byte, error) {
		if string(request) != snapshot.CommandGetData {
			return nil, snapshot.ErrUnrecognizedRequest
		}
		return []byte(sampleResponse), nil
	})

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return addr
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--no-color", "--timeout", "2s"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTreeOutput(t *testing.T) {
	addr := startServer(t)

	out, err := execute(t, "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "Block ID: 7")
	assert.Contains(t, out, "Board: Line card (70)")
	assert.Contains(t, out, "Port 1: media=1 signal=2")
	assert.Contains(t, out, "Port 2: media=3 signal=4")
}

func TestRawOutput(t *testing.T) {
	addr := startServer(t)

	out, err := execute(t, "--addr", addr, "--raw")
	require.NoError(t, err)
	assert.Equal(t, sampleResponse, out)
}

func TestQueryOutput(t *testing.T) {
	addr := startServer(t)

	out, err := execute(t, "--addr", addr, "--query", "$.blocks[*].data_json.boards[*].ports[*].num")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)

	_, err = execute(t, "--addr", addr, "--query", "$.blocks[")
	assert.Error(t, err)
}

func TestRejectedCommand(t *testing.T) {
	addr := startServer(t)

	_, err := execute(t, "--addr", addr, "--command", "HELLO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without data")
}

func TestPrintTreeEmpty(t *testing.T) {
	var out bytes.Buffer
	printTree(&out, &snapshot.Response{})
	assert.Equal(t, "(no blocks)\n", out.String())
}
