// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package topology

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Marshal encodes a block into its snapshot payload.
func Marshal(b *Block) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("topology: marshal nil block")
	}
	data, err := json.MarshalIndent(b.normalized(), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode block %d: %w", b.ID, err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot payload produced by Marshal.
func Unmarshal(data []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode block: %w", err)
	}
	if b.Boards == nil {
		b.Boards = []Board{}
	}
	for i := range b.Boards {
		if b.Boards[i].Ports == nil {
			b.Boards[i].Ports = []Port{}
		}
	}
	return &b, nil
}
