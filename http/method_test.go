// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodRoundTrip(t *testing.T) {
	for m, s := range methodNames {
		parsed, err := ParseMethod(s)
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
		assert.Equal(t, s, m.String())
	}
}

func TestParseMethodUnknown(t *testing.T) {
	_, err := ParseMethod("BREW")
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestParseMethodCaseSensitive(t *testing.T) {
	_, err := ParseMethod("get")
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}
