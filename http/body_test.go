// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedEncode encodes body as chunked transfer encoding, splitting it
// into chunks of the given sizes (the final zero chunk is appended
// automatically).
func chunkedEncode(body string, sizes []int) string {
	var sb strings.Builder
	rest := body
	for _, n := range sizes {
		if n > len(rest) {
			n = len(rest)
		}
		fmt.Fprintf(&sb, "%x\r\n%s\r\n", n, rest[:n])
		rest = rest[n:]
	}
	if len(rest) > 0 {
		fmt.Fprintf(&sb, "%x\r\n%s\r\n", len(rest), rest)
	}
	sb.WriteString("0\r\n\r\n")
	return sb.String()
}

func TestChunkedReaderDecodesPartitions(t *testing.T) {
	body := "hello chunked world"
	partitions := [][]int{
		{len(body)},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{5, 8, 6},
		{3, 16},
	}
	for _, sizes := range partitions {
		wire := chunkedEncode(body, sizes)
		cr := newChunkedReader(bufio.NewReader(strings.NewReader(wire)))
		got, err := io.ReadAll(cr)
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
	}
}

func TestChunkedReaderEmptyStream(t *testing.T) {
	cr := newChunkedReader(bufio.NewReader(strings.NewReader("0\r\n\r\n")))
	got, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChunkedReaderMalformedSize(t *testing.T) {
	cr := newChunkedReader(bufio.NewReader(strings.NewReader("zz\r\nhi\r\n0\r\n\r\n")))
	_, err := io.ReadAll(cr)
	assert.ErrorIs(t, err, ErrMalformedChunkSize)
}

func TestChunkedReaderMissingTrailerCRLF(t *testing.T) {
	cr := newChunkedReader(bufio.NewReader(strings.NewReader("2\r\nhiXX0\r\n\r\n")))
	_, err := io.ReadAll(cr)
	assert.ErrorIs(t, err, ErrMalformedChunkSize)
}

func TestChunkedWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	cw := newChunkedWriter(&buf)
	_, err := cw.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = cw.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, cw.Close())

	cr := newChunkedReader(bufio.NewReader(&buf))
	got, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestIdentityReaderBoundedByContentLength(t *testing.T) {
	ir := newIdentityReader(strings.NewReader("0123456789"), 4)
	got, err := io.ReadAll(ir)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(got))
}

func TestIdentityReaderSourceEOFBeforeLength(t *testing.T) {
	ir := newIdentityReader(strings.NewReader("01"), 4)
	got, err := io.ReadAll(ir)
	require.NoError(t, err)
	assert.Equal(t, "01", string(got))
}

func TestIdentityReaderUnbounded(t *testing.T) {
	ir := newIdentityReader(strings.NewReader("until the end"), -1)
	got, err := io.ReadAll(ir)
	require.NoError(t, err)
	assert.Equal(t, "until the end", string(got))
}

func TestComposeBodyReaderChunkedTakesPrecedence(t *testing.T) {
	wire := chunkedEncode("payload", []int{7})
	r, err := composeBodyReader(bufio.NewReader(strings.NewReader(wire)), []string{"chunked"}, 9999, true)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestComposeBodyReaderNoFramingYieldsEmpty(t *testing.T) {
	r, err := composeBodyReader(bufio.NewReader(strings.NewReader("leftover")), nil, 0, false)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBodyCloseReleasesOwnedReaderOnce(t *testing.T) {
	closes := 0
	b := NewOwnedBody(&countingCloser{closes: &closes})
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, closes)
}

type countingCloser struct {
	closes *int
}

func (c *countingCloser) Read(p []byte) (int, error) { return 0, io.EOF }

func (c *countingCloser) Close() error {
	*c.closes++
	return nil
}
