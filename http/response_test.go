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

func TestResponseRecvWith11(t *testing.T) {
	wire := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi"
	res := &Response{}
	require.NoError(t, res.RecvWith(bufio.NewReader(strings.NewReader(wire))))
	assert.Equal(t, Version1_1, res.Version)
	assert.Equal(t, StatusOK, res.StatusCode)
	assert.Equal(t, "OK", res.ReasonPhrase)
	body, err := ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(body))
}

func TestResponseRecvWith09PreservesConsumedPrefix(t *testing.T) {
	// The first "line" is not a status line, so everything -- including
	// the bytes consumed while probing for one, and their CRLF -- is the
	// body of an HTTP/0.9 response.
	wire := "hi there\r\nrest of body"
	res := &Response{}
	require.NoError(t, res.RecvWith(bufio.NewReader(strings.NewReader(wire))))
	assert.Equal(t, Version0_9, res.Version)
	assert.Nil(t, res.Headers)
	body, err := ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, wire, string(body))
}

func TestResponseRecvWithUnknownVersionIs09(t *testing.T) {
	// "HTTP/7.3 200 OK" does not name a known version, so the whole
	// stream is an HTTP/0.9 body rather than a 505 error.
	wire := "HTTP/7.3 200 OK\r\nbody"
	res := &Response{}
	require.NoError(t, res.RecvWith(bufio.NewReader(strings.NewReader(wire))))
	assert.Equal(t, Version0_9, res.Version)
	body, err := ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, wire, string(body))
}

func TestResponseSendWithDefaultReasonPhrase(t *testing.T) {
	res := NewResponse(StatusNotFound)
	var buf bytes.Buffer
	require.NoError(t, res.SendWith(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "HTTP/1.1 404 Not Found\r\n"))
}

func TestResponseSendWith09BodyOnly(t *testing.T) {
	res := &Response{Version: Version0_9, Body: NewBodyFromBytes([]byte("hi"))}
	var buf bytes.Buffer
	require.NoError(t, res.SendWith(&buf))
	assert.Equal(t, "hi", buf.String())
}

func TestResponseSendWithRoundTrip(t *testing.T) {
	res := NewResponse(StatusOK)
	res.Headers.SetContentLength(5)
	res.Headers.Set("Content-Type", DefaultContentType)
	res.Body = NewBodyFromBytes([]byte("/echo"))

	var buf bytes.Buffer
	require.NoError(t, res.SendWith(&buf))
	assert.Equal(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Type: application/octet-stream; charset=UTF-8\r\n\r\n/echo",
		buf.String())

	parsed := &Response{}
	require.NoError(t, parsed.RecvWith(bufio.NewReader(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, StatusOK, parsed.StatusCode)
	body, err := ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "/echo", string(body))
}

func TestPrefixReader(t *testing.T) {
	pr := newPrefixReader("abc", strings.NewReader("def"))
	var out bytes.Buffer
	buf := make([]byte, 2)
	for {
		n, err := pr.Read(buf)
		out.Write(buf[:n])
		if err != nil {
			break
		}
	}
	assert.Equal(t, "abcdef", out.String())
}
