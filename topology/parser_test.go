// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package topology

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<config>
  <block id="7" Name="Core-1" IP="10.0.0.7" BoardCount="2" MtR="3" MtC="4" Description="core switch" Label="rack A">
    <board id="1" Num="1" Name="LC-48" PortCount="2" IntLinks="1-2" Algoritms="rr">
      <port id="1" Num="1" Media="2" Signal="5"/>
      <port id="2" Num="2" Media="2" Signal="6"/>
    </board>
    <board id="2" Num="2" Name="SUP" PortCount="0" IntLinks="" Algoritms=""/>
  </block>
</config>
`

func TestParse_Document(t *testing.T) {
	b, err := Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, 7, b.ID)
	assert.Equal(t, "Core-1", b.Name)
	assert.Equal(t, "10.0.0.7", b.IP)
	assert.Equal(t, 2, b.BoardCount)
	assert.Equal(t, 3, b.MtR)
	assert.Equal(t, 4, b.MtC)
	assert.Equal(t, "core switch", b.Description)
	assert.Equal(t, "rack A", b.Label)

	require.Len(t, b.Boards, 2)
	lc := b.Boards[0]
	assert.Equal(t, Board{
		ID: 1, Num: 1, Name: "LC-48", PortCount: 2, IntLinks: "1-2", Algorithms: "rr",
		Ports: []Port{
			{ID: 1, Num: 1, Media: 2, Signal: 5},
			{ID: 2, Num: 2, Media: 2, Signal: 6},
		},
	}, lc)
	assert.Equal(t, "SUP", b.Boards[1].Name)
	assert.Empty(t, b.Boards[1].Ports)
	assert.NotNil(t, b.Boards[1].Ports)
	assert.Empty(t, b.Validate())
}

func TestParse_AttributeFallbacks(t *testing.T) {
	doc := `<block id="abc" name="lower" boardcount=" 3 "><board num="x"><port/></board></block>`
	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 0, b.ID)
	assert.Equal(t, "lower", b.Name)
	assert.Equal(t, 3, b.BoardCount)
	assert.Equal(t, "", b.IP)
	require.Len(t, b.Boards, 1)
	assert.Equal(t, 0, b.Boards[0].Num)
	assert.Equal(t, []Port{{}}, b.Boards[0].Ports)
}

func TestParse_AlgorithmsSpelling(t *testing.T) {
	b, err := Parse(strings.NewReader(`<block id="1"><board Algorithms="fifo"/></block>`))
	require.NoError(t, err)
	assert.Equal(t, "fifo", b.Boards[0].Algorithms)
}

func TestParse_DeclaredCountsNotEnforced(t *testing.T) {
	doc := `<block id="1" BoardCount="5"><board id="1" PortCount="4"><port id="1"/></board></block>`
	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Len(t, b.Boards, 1)
	assert.Len(t, b.Boards[0].Ports, 1)
	assert.Len(t, b.Validate(), 2)
}

func TestParse_SameNameNesting(t *testing.T) {
	doc := `<block id="1">
  <board id="10">
    <board id="99"><port id="5"/></board>
    <port id="6"/>
  </board>
  <block id="2"><board id="11"/></block>
  <board id="12"/>
</block>`
	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, b.ID)
	ids := make([]int, 0, len(b.Boards))
	for _, board := range b.Boards {
		ids = append(ids, board.ID)
	}
	assert.Equal(t, []int{10, 11, 12}, ids)
	assert.Equal(t, []Port{{ID: 5}, {ID: 6}}, b.Boards[0].Ports)
}

func TestParse_WrapperElements(t *testing.T) {
	doc := `<block id="3"><boards><board id="1"><ports><port id="1"/></ports></board></boards></block>`
	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, b.Boards, 1)
	assert.Len(t, b.Boards[0].Ports, 1)
}

func TestParse_FirstBlockWins(t *testing.T) {
	doc := `<root><block id="1"/><block id="2"><board id="9"/></block></root>`
	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, b.ID)
	assert.Empty(t, b.Boards)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", ``, ErrNoBlock},
		{"no block", `<config><board id="1"/></config>`, ErrNoBlock},
		{"missing end tag", `<block id="1"><board id="1"><port id="1"/>`, ErrMalformed},
		{"mismatched tag", `<block id="1"><board></block>`, ErrMalformed},
		{"garbage", `<block id="1" <<`, ErrMalformed},
		{"error after block", `<root><block id="1"/><oops></root>`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Parse(strings.NewReader(tt.doc))
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_DeclaredEncodings(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		rawName  []byte
		wantName string
	}{
		// "Узел-1" in windows-1251
		{"windows-1251", `<?xml version="1.0" encoding="windows-1251"?>`, []byte{0xD3, 0xE7, 0xE5, 0xEB, '-', '1'}, "Узел-1"},
		{"cp1251 alias", `<?xml version="1.0" encoding="cp1251"?>`, []byte{0xD3, 0xE7, 0xE5, 0xEB}, "Узел"},
		// "Café" in latin1
		{"ISO-8859-1", `<?xml version="1.0" encoding="ISO-8859-1"?>`, []byte{'C', 'a', 'f', 0xE9}, "Café"},
		{"UTF-8 with BOM", "\ufeff" + `<?xml version="1.0" encoding="UTF-8"?>`, []byte("Узел"), "Узел"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc bytes.Buffer
			doc.WriteString(tt.header)
			doc.WriteString(`<block id="3" Name="`)
			doc.Write(tt.rawName)
			doc.WriteString(`"><board id="1" Name="`)
			doc.Write(tt.rawName)
			doc.WriteString(`"/></block>`)

			b, err := Parse(&doc)
			require.NoError(t, err)
			assert.Equal(t, 3, b.ID)
			assert.Equal(t, tt.wantName, b.Name)
			require.Len(t, b.Boards, 1)
			assert.Equal(t, tt.wantName, b.Boards[0].Name)
		})
	}
}

func TestParse_UnknownEncoding(t *testing.T) {
	doc := `<?xml version="1.0" encoding="x-no-such-charset"?><block id="1"/>`
	_, err := Parse(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrMalformed)
}
