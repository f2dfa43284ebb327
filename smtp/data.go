// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import "io"

// dataTerminator is the wire sequence ending a DATA body.
const dataTerminator = "\r\n.\r\n"

var dataPartialMatch = computeKMPPartialMatch(dataTerminator)

// DataReader streams bytes from an underlying [io.ByteReader] until it
// detects [dataTerminator], at which point it reports io.EOF without
// emitting the terminator itself. It uses the Knuth-Morris-Pratt
// partial-match table to resolve matches that straddle arbitrary
// underlying read boundaries: terminator bytes split arbitrarily
// across reads decode identically.
//
// DataReader processes one
// byte at a time and withholds matched-but-unconfirmed bytes until the
// match either completes (the bytes are the terminator; discarded) or
// fails (the bytes are flushed to the caller via the partial-match
// table's "surviving prefix" count), so the terminator never appears
// in the returned body.
type DataReader struct {
	src       io.ByteReader
	candidate int
	matchBuf  []byte
	pending   []byte
	done      bool
}

// NewDataReader constructs a [*DataReader] over src.
func NewDataReader(src io.ByteReader) *DataReader {
	return &DataReader{src: src}
}

// Read implements [io.Reader].
func (d *DataReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	for n < len(p) && len(d.pending) > 0 {
		p[n] = d.pending[0]
		d.pending = d.pending[1:]
		n++
	}
	if n > 0 {
		return n, nil
	}
	if d.done {
		return 0, io.EOF
	}
	for n < len(p) {
		b, err := d.src.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		for _, e := range d.step(b) {
			if n < len(p) {
				p[n] = e
				n++
			} else {
				d.pending = append(d.pending, e)
			}
		}
		if d.done {
			break
		}
	}
	return n, nil
}

// step feeds one byte into the streaming KMP matcher, returning any
// bytes now confirmed not to be part of [dataTerminator] and therefore
// safe to emit to the caller. Sets d.done once the full terminator has
// been consumed.
func (d *DataReader) step(b byte) []byte {
	var emitted []byte
	for {
		if d.candidate < len(dataTerminator) && b == dataTerminator[d.candidate] {
			d.matchBuf = append(d.matchBuf, b)
			d.candidate++
			if d.candidate == len(dataTerminator) {
				d.done = true
				d.matchBuf = d.matchBuf[:0]
				d.candidate = 0
			}
			return emitted
		}
		if d.candidate == 0 {
			return append(emitted, b)
		}
		fallback := dataPartialMatch[d.candidate]
		if fallback < 0 {
			fallback = 0
		}
		surviving := len(d.matchBuf) - fallback
		emitted = append(emitted, d.matchBuf[:surviving]...)
		d.matchBuf = d.matchBuf[surviving:]
		d.candidate = fallback
		// Retry b against the rewound candidate state.
	}
}
