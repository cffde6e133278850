// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package topology

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	// ErrMalformed is returned when the document is not well-formed markup,
	// including documents that end before every element is closed.
	ErrMalformed = errors.New("topology: malformed document")

	// ErrNoBlock is returned when the document has no block element.
	ErrNoBlock = errors.New("topology: document has no block element")
)

// Parse reads one topology document and returns its block.
//
// The document is scanned forward only. Boards are collected while a block is
// open and ports while a board is open, at any depth below their parent.
// Open elements are tracked by depth, so an element nested inside an element
// of the same name neither opens a new entity nor closes the outer one.
// Only the first block is returned; the rest of the document is still read so
// that markup errors anywhere in it are reported.
//
// A declared non-UTF-8 encoding (windows-1251, ISO-8859-1, ...) is decoded
// to UTF-8 before parsing.
func Parse(r io.Reader) (*Block, error) {
	d := xml.NewDecoder(r)
	d.Strict = true
	d.CharsetReader = charset.NewReaderLabel

	var (
		block      *Block
		board      *Board
		depth      int
		blockDepth int
		boardDepth int
		closed     bool
	)

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if closed {
				continue
			}
			switch strings.ToLower(t.Name.Local) {
			case ElementBlock:
				if block == nil {
					block = newBlock(readAttrs(t.Attr))
					blockDepth = depth
				}
			case ElementBoard:
				if block != nil && board == nil {
					board = newBoard(readAttrs(t.Attr))
					boardDepth = depth
				}
			case ElementPort:
				if board != nil {
					board.Ports = append(board.Ports, newPort(readAttrs(t.Attr)))
				}
			}
		case xml.EndElement:
			switch {
			case closed:
			case board != nil && depth == boardDepth:
				block.Boards = append(block.Boards, *board)
				board = nil
			case block != nil && depth == blockDepth:
				closed = true
			}
			depth--
		}
	}

	if block == nil {
		return nil, ErrNoBlock
	}
	return block, nil
}

func newBlock(a attrs) *Block {
	return &Block{
		ID:          a.int("id"),
		Name:        a.str("name"),
		IP:          a.str("ip"),
		BoardCount:  a.int("boardcount"),
		MtR:         a.int("mtr"),
		MtC:         a.int("mtc"),
		Description: a.str("description"),
		Label:       a.str("label"),
		Boards:      []Board{},
	}
}

func newBoard(a attrs) *Board {
	return &Board{
		ID:         a.int("id"),
		Num:        a.int("num"),
		Name:       a.str("name"),
		PortCount:  a.int("portcount"),
		IntLinks:   a.str("intlinks"),
		Algorithms: a.str("algorithms", "algoritms"),
		Ports:      []Port{},
	}
}

func newPort(a attrs) Port {
	return Port{
		ID:     a.int("id"),
		Num:    a.int("num"),
		Media:  a.int("media"),
		Signal: a.int("signal"),
	}
}

// attrs holds element attributes keyed by lower-cased local name.
type attrs map[string]string

func readAttrs(in []xml.Attr) attrs {
	a := make(attrs, len(in))
	for _, attr := range in {
		key := strings.ToLower(attr.Name.Local)
		if _, ok := a[key]; !ok {
			a[key] = attr.Value
		}
	}
	return a
}

// str returns the first present attribute among names, or "".
func (a attrs) str(names ...string) string {
	for _, name := range names {
		if v, ok := a[name]; ok {
			return v
		}
	}
	return ""
}

// int returns the attribute as an integer, or 0 when absent or not numeric.
func (a attrs) int(names ...string) int {
	n, err := strconv.Atoi(strings.TrimSpace(a.str(names...)))
	if err != nil {
		return 0
	}
	return n
}
