// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Command topofetch requests the topology snapshot from a running server
// and prints it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ffutop/topology-server/internal/snapshot"
	"github.com/ffutop/topology-server/transport/tcp"
)

type options struct {
	addr    string
	command string
	timeout time.Duration
	raw     bool
	query   string
	noColor bool
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "topofetch",
		Short: "Fetch the topology snapshot from a topology server",
		Long: `Send the snapshot command to a topology server and print the result.

By default the blocks are printed as a tree. Use --raw for the response
document as sent by the server, or --query to select parts of it.

Examples:
  topofetch --addr 10.0.0.5:12345
  topofetch --query '$.blocks[*].block_id'`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", "127.0.0.1:12345", "server address")
	flags.StringVar(&opts.command, "command", snapshot.CommandGetData, "request command")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "connect and read timeout")
	flags.BoolVar(&opts.raw, "raw", false, "print the response untouched")
	flags.StringVar(&opts.query, "query", "", "JSONPath evaluated against the response")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	client := tcp.NewClient(opts.addr)
	client.Timeout = opts.timeout

	data, err := client.Fetch(cmd.Context(), []byte(opts.command))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("server at %s closed the connection without data (command %q rejected?)", opts.addr, opts.command)
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.raw:
		_, err = out.Write(data)
		return err
	case opts.query != "":
		return printQuery(out, data, opts.query)
	default:
		resp, err := decodeResponse(data)
		if err != nil {
			return err
		}
		printTree(out, resp)
		return nil
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
