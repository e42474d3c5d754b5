package scanner

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/model"
)

func TestDetectJSON20(t *testing.T) {
	input := `{"@context":["https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld"],"schemaVersion":"2.0","type":"EPCISDocument"}`
	r := NewResettableReader(strings.NewReader(input))

	v, err := Detect(r)
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion2_0, v)
}

func TestDetectXML12(t *testing.T) {
	input := `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:1" schemaVersion="1.2" creationDate="2024-01-01T00:00:00Z">`
	r := NewResettableReader(strings.NewReader(input))

	v, err := Detect(r)
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion1_2, v)
}

func TestDetectUnknownVersion(t *testing.T) {
	r := NewResettableReader(strings.NewReader(`{"type":"EPCISDocument"}`))

	_, err := Detect(r)
	assert.True(t, errors.Is(err, model.ErrUnknownVersion))
}

func TestDetectUnsupportedVersion(t *testing.T) {
	r := NewResettableReader(strings.NewReader(`{"schemaVersion":"3.0"}`))

	_, err := Detect(r)
	assert.True(t, errors.Is(err, model.ErrUnsupportedVersion))
}

func TestDetectDoesNotAdvancePosition(t *testing.T) {
	input := `{"schemaVersion":"2.0"}` + strings.Repeat("x", 200)
	src := strings.NewReader(input)
	r := NewResettableReader(src)

	_, err := Detect(r)
	require.NoError(t, err)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(all))
}

func TestDetectLongPrefixNoMatch(t *testing.T) {
	input := strings.Repeat("x", scanBudget+10)
	r := NewResettableReader(strings.NewReader(input))

	_, err := Detect(r)
	assert.True(t, errors.Is(err, model.ErrUnknownVersion))
}
