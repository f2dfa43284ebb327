// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonPhraseKnown(t *testing.T) {
	assert.Equal(t, "OK", ReasonPhrase(StatusOK))
	assert.Equal(t, "Not Found", ReasonPhrase(StatusNotFound))
	assert.Equal(t, "HTTP Version Not Supported", ReasonPhrase(StatusHTTPVersionNotSupported))
}

func TestReasonPhraseUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", ReasonPhrase(StatusCode(799)))
}

func TestStatusForRecvErrorMapping(t *testing.T) {
	assert.Equal(t, StatusHTTPVersionNotSupported, statusForRecvError(ErrVersionNotSupported))
	assert.Equal(t, StatusMethodNotAllowed, statusForRecvError(ErrMethodNotAllowed))
	assert.Equal(t, StatusBadRequest, statusForRecvError(ErrMalformedHeader))
	assert.Equal(t, StatusBadRequest, statusForRecvError(ErrMalformedChunkSize))
	assert.Equal(t, StatusBadRequest, statusForRecvError(ErrTooManyEncodings))
	assert.Equal(t, StatusInternalServerError, statusForRecvError(assert.AnError))
}
