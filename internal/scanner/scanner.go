// Package scanner implements the prefix-based schema-version detector
// (C1): it inspects a bounded prefix of an input stream for a
// schemaVersion attribute/field without disturbing the caller's logical
// read position.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/trackvision/epcis-convert/internal/model"
)

// scanBudget is the maximum number of bytes Detect will peek into before
// giving up and signaling ErrUnknownVersion.
const scanBudget = 1_000_000

// peekStep is the increment Detect grows its peek window by; matches both
// XML (`schemaVersion="2.0"`) and JSON (`"schemaVersion":"2.0"`) shapes.
const peekStep = 64

var schemaVersionRE = regexp.MustCompile(`schemaVersion"?\s*[:=]\s*"?([0-9.]+)["\s,/>}]`)

// ResettableReader is the contract Detect requires: a reader that can be
// marked and rewound so scanning never consumes the caller's stream.
type ResettableReader interface {
	io.Reader
	Mark(limit int)
	Reset() error
}

// bufioResettable adapts a *bufio.Reader to ResettableReader via
// Peek-based marking (Mark records the limit; Reset is a no-op because
// nothing was actually Read, only Peeked).
type bufioResettable struct {
	br *bufio.Reader
}

// NewResettableReader wraps r in a ResettableReader backed by a
// bufio.Reader sized to the scan budget.
func NewResettableReader(r io.Reader) ResettableReader {
	return &bufioResettable{br: bufio.NewReaderSize(r, scanBudget)}
}

func (b *bufioResettable) Read(p []byte) (int, error) { return b.br.Read(p) }
func (b *bufioResettable) Mark(limit int)             {}
func (b *bufioResettable) Reset() error                { return nil }

// Peek exposes the underlying bufio.Reader's Peek so Detect can grow its
// window without consuming bytes.
func (b *bufioResettable) Peek(n int) ([]byte, error) { return b.br.Peek(n) }

type peeker interface {
	Peek(n int) ([]byte, error)
}

// Detect marks r, scans up to scanBudget bytes in peekStep increments for
// the first schemaVersion literal, and resets r on both the success and
// failure paths so the caller's logical position never advances.
func Detect(r ResettableReader) (model.SchemaVersion, error) {
	r.Mark(scanBudget)
	defer r.Reset()

	pk, ok := r.(peeker)
	if !ok {
		pk = &peekAdapter{src: r}
	}

	for n := peekStep; n <= scanBudget; n += peekStep {
		buf, err := pk.Peek(n)
		if m := schemaVersionRE.FindSubmatch(buf); m != nil {
			version, known := model.ParseSchemaVersion(string(m[1]))
			if !known {
				return model.SchemaVersionUnknown, fmt.Errorf("scanner: literal %q: %w", m[1], model.ErrUnsupportedVersion)
			}
			return version, nil
		}
		if err != nil {
			// Peek returned fewer bytes than requested: stream is shorter
			// than the window. No match found within the available bytes.
			if err == io.EOF || len(buf) < n {
				return model.SchemaVersionUnknown, fmt.Errorf("scanner: %w", model.ErrUnknownVersion)
			}
			return model.SchemaVersionUnknown, fmt.Errorf("scanner: reading prefix: %w", err)
		}
	}

	return model.SchemaVersionUnknown, fmt.Errorf("scanner: %w", model.ErrUnknownVersion)
}

// peekAdapter gives a plain ResettableReader (one without its own Peek) a
// buffered Peek by reading into a growable internal buffer. Used only when
// a caller supplies a ResettableReader implementation that isn't
// bufio-backed.
type peekAdapter struct {
	src ResettableReader
	buf []byte
}

func (p *peekAdapter) Peek(n int) ([]byte, error) {
	for len(p.buf) < n {
		chunk := make([]byte, n-len(p.buf))
		read, err := p.src.Read(chunk)
		p.buf = append(p.buf, chunk[:read]...)
		if err != nil {
			if len(p.buf) > n {
				p.buf = p.buf[:n]
			}
			return p.buf, err
		}
	}
	return p.buf[:n], nil
}
