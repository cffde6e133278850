// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	parsed, err := Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	payload, err := Marshal(parsed)
	require.NoError(t, err)

	decoded, err := Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, parsed, decoded)
}

func TestCodec_EmptyListsEncodeAsArrays(t *testing.T) {
	payload, err := Marshal(&Block{ID: 4, Boards: []Board{{ID: 1}}})
	require.NoError(t, err)

	s := string(payload)
	assert.Contains(t, s, `"block_id": 4`)
	assert.Contains(t, s, `"ports": []`)
	assert.NotContains(t, s, "null")

	payload, err = Marshal(&Block{ID: 5})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"boards": []`)
}

func TestCodec_Errors(t *testing.T) {
	_, err := Marshal(nil)
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"block_id": "seven"`))
	assert.Error(t, err)
}
