// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/ffutop/topology-server/internal/snapshot"
)

func decodeResponse(data []byte) (*snapshot.Response, error) {
	var resp snapshot.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid snapshot response: %w", err)
	}
	return &resp, nil
}

// printQuery prints every JSONPath match as indented JSON, one per line.
func printQuery(w io.Writer, data []byte, query string) error {
	x, err := jp.ParseString(query)
	if err != nil {
		return fmt.Errorf("invalid jsonpath '%s': %w", query, err)
	}
	root, err := oj.Parse(data)
	if err != nil {
		return fmt.Errorf("invalid snapshot response: %w", err)
	}
	for _, match := range x.Get(root) {
		fmt.Fprintln(w, oj.JSON(match, 2))
	}
	return nil
}

func printTree(w io.Writer, resp *snapshot.Response) {
	blockColor := color.New(color.FgHiBlue, color.Bold)
	boardColor := color.New(color.FgGreen)
	portColor := color.New(color.FgYellow)

	if len(resp.Blocks) == 0 {
		fmt.Fprintln(w, "(no blocks)")
		return
	}
	for _, entry := range resp.Blocks {
		fmt.Fprintln(w, blockColor.Sprintf("Block ID: %d", entry.BlockID))
		block := entry.Data
		if block == nil {
			continue
		}
		if block.Name != "" || block.IP != "" {
			fmt.Fprintf(w, "  %s %s\n", block.Name, block.IP)
		}
		for _, board := range block.Boards {
			fmt.Fprintf(w, "  %s\n", boardColor.Sprintf("Board: %s (%d)", board.Name, board.ID))
			for _, port := range board.Ports {
				fmt.Fprintf(w, "    %s media=%d signal=%d\n", portColor.Sprintf("Port %d:", port.Num), port.Media, port.Signal)
			}
		}
	}
}
