// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAuthMethod(t *testing.T) {
	cases := map[string]AuthMethod{
		"PLAIN":    AuthMethodPLAIN,
		"login":    AuthMethodLOGIN,
		"Cram-Md5": AuthMethodCRAMMD5,
	}
	for s, want := range cases {
		got, err := ParseAuthMethod(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseAuthMethodUnknown(t *testing.T) {
	_, err := ParseAuthMethod("NOPE")
	assert.ErrorIs(t, err, ErrUnknownAuthMethod)
}
