// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRecvWith11(t *testing.T) {
	wire := "GET /echo HTTP/1.1\r\nHost: x\r\n\r\n"
	req := &Request{}
	require.NoError(t, req.RecvWith(bufio.NewReader(strings.NewReader(wire))))
	assert.Equal(t, MethodGET, req.Method)
	assert.Equal(t, "/echo", req.Target)
	assert.Equal(t, Version1_1, req.Version)
	host, ok := req.Headers.Host()
	require.True(t, ok)
	assert.Equal(t, "x", host)
}

func TestRequestRecvWith09(t *testing.T) {
	req := &Request{}
	require.NoError(t, req.RecvWith(bufio.NewReader(strings.NewReader("GET /\r\n"))))
	assert.Equal(t, Version0_9, req.Version)
	assert.Equal(t, "/", req.Target)
	assert.Nil(t, req.Headers)
	body, err := ReadAll(req.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestRequestRecvWithUnknownMethod(t *testing.T) {
	req := &Request{}
	err := req.RecvWith(bufio.NewReader(strings.NewReader("BREW /pot HTTP/1.1\r\n\r\n")))
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestRequestRecvWithUnknownVersion(t *testing.T) {
	req := &Request{}
	err := req.RecvWith(bufio.NewReader(strings.NewReader("GET / HTTP/2.0\r\n\r\n")))
	assert.ErrorIs(t, err, ErrVersionNotSupported)
}

func TestRequestRecvWithContentLengthBody(t *testing.T) {
	wire := "POST /u HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhellorest"
	req := &Request{}
	require.NoError(t, req.RecvWith(bufio.NewReader(strings.NewReader(wire))))
	body, err := ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestRequestRecvWithChunkedBody(t *testing.T) {
	wire := "POST /u HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	req := &Request{}
	require.NoError(t, req.RecvWith(bufio.NewReader(strings.NewReader(wire))))
	body, err := ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestRequestSendWithRoundTrip(t *testing.T) {
	req := NewRequest(MethodPOST, "/submit")
	req.Headers.Add("Host", "example.com")
	req.Headers.SetContentLength(4)
	req.Body = NewBodyFromBytes([]byte("data"))

	var buf bytes.Buffer
	require.NoError(t, req.SendWith(&buf))

	parsed := &Request{}
	require.NoError(t, parsed.RecvWith(bufio.NewReader(&buf)))
	assert.Equal(t, MethodPOST, parsed.Method)
	assert.Equal(t, "/submit", parsed.Target)
	assert.Equal(t, Version1_1, parsed.Version)
	body, err := ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))
}

func TestRequestSendWith09(t *testing.T) {
	req := &Request{Method: MethodGET, Target: "/", Version: Version0_9}
	var buf bytes.Buffer
	require.NoError(t, req.SendWith(&buf))
	assert.Equal(t, "GET /\r\n", buf.String())
}

func TestParseRequestStartLineTargetWithSpaces(t *testing.T) {
	method, target, version, has09 := parseRequestStartLine("GET /a b HTTP/1.1")
	assert.Equal(t, "GET", method)
	assert.Equal(t, "/a b", target)
	assert.Equal(t, "1.1", version)
	assert.False(t, has09)
}
