// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	cases := map[string]Version{
		"0.9": Version0_9,
		"1.0": Version1_0,
		"1.1": Version1_1,
	}
	for s, want := range cases {
		v, err := ParseVersion(s)
		require.NoError(t, err)
		assert.Equal(t, want, v)
		assert.Equal(t, s, v.String())
	}
}

func TestParseVersionUnknown(t *testing.T) {
	_, err := ParseVersion("2.0")
	assert.ErrorIs(t, err, ErrVersionNotSupported)
}
