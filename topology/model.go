// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package topology

import "fmt"

// Element names of a topology document.
const (
	ElementBlock = "block"
	ElementBoard = "board"
	ElementPort  = "port"
)

// Port is a single port of a board.
type Port struct {
	ID     int `json:"id"`
	Num    int `json:"num"`
	Media  int `json:"media"`
	Signal int `json:"signal"`
}

// Board is a board installed in a block. Ports keep document order.
type Board struct {
	ID         int    `json:"id"`
	Num        int    `json:"num"`
	Name       string `json:"name"`
	PortCount  int    `json:"port_count"`
	IntLinks   string `json:"int_links"`
	Algorithms string `json:"algorithms"`
	Ports      []Port `json:"ports"`
}

// Block is the top-level equipment entity of a document. ID is the persistence key.
type Block struct {
	ID          int     `json:"block_id"`
	Name        string  `json:"name"`
	IP          string  `json:"ip"`
	BoardCount  int     `json:"board_count"`
	MtR         int     `json:"mtr"`
	MtC         int     `json:"mtc"`
	Description string  `json:"description"`
	Label       string  `json:"label"`
	Boards      []Board `json:"boards"`
}

// Validate compares the declared counts with the parsed children.
// A mismatch is not an error: the returned warnings only describe the
// inconsistency of the source document.
func (b *Block) Validate() []string {
	var warnings []string
	if b.BoardCount != len(b.Boards) {
		warnings = append(warnings, fmt.Sprintf("block %d declares %d boards, found %d", b.ID, b.BoardCount, len(b.Boards)))
	}
	for _, board := range b.Boards {
		if board.PortCount != len(board.Ports) {
			warnings = append(warnings, fmt.Sprintf("board %d declares %d ports, found %d", board.ID, board.PortCount, len(board.Ports)))
		}
	}
	return warnings
}

// normalized returns a copy of b whose child lists are never nil,
// so that they encode as empty arrays.
func (b *Block) normalized() *Block {
	out := *b
	out.Boards = make([]Board, len(b.Boards))
	for i, board := range b.Boards {
		if board.Ports == nil {
			board.Ports = []Port{}
		}
		out.Boards[i] = board
	}
	return &out
}
