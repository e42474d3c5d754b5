package identifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/model"
)

// S3 — Identifier URN->Web-URI.
func TestToWebURI_SGTIN(t *testing.T) {
	got, err := ToWebURI("urn:epc:id:sgtin:234567890.1123.9999")
	require.NoError(t, err)
	assert.Equal(t, "https://id.gs1.org/01/12345678901231/21/9999", got)
}

// S4 — Identifier class URN->Web-URI.
func TestToWebURI_ITIPClass(t *testing.T) {
	got, err := ToWebURI("urn:epc:idpat:itip:483478.7347834.92.93.*")
	require.NoError(t, err)
	assert.Equal(t, "https://id.gs1.org/8006/748347834783449293", got)
}

// S5 — Web-URI->URN with GCP inference fails.
func TestToURN_UnknownGCPLength(t *testing.T) {
	_, err := ToURN("https://id.gs1.org/01/07610032000010/21/987", 0)
	assert.True(t, errors.Is(err, model.ErrUnknownGcpLength))
}

// Round-trip law 3: to_urn(to_web_uri(u)).asURN == u for a well-formed URN
// with a known GCP.
func TestRoundTrip_URNToWebURIToURN(t *testing.T) {
	urn := "urn:epc:id:sgtin:234567890.1123.9999"

	webURI, err := ToWebURI(urn)
	require.NoError(t, err)

	gcpLen, err := GCPLength(urn)
	require.NoError(t, err)

	result, err := ToURN(webURI, gcpLen)
	require.NoError(t, err)
	assert.Equal(t, urn, result.AsURN)
}

// Round-trip law 4: to_web_uri(to_urn(w).asURN) == w modulo canonicalDL,
// for a Web-URI with an inferable (supplied) GCP.
func TestRoundTrip_WebURIToURNToWebURI(t *testing.T) {
	webURI := "https://id.gs1.org/01/12345678901231/21/9999"

	result, err := ToURN(webURI, 9)
	require.NoError(t, err)

	back, err := ToWebURI(result.AsURN)
	require.NoError(t, err)
	assert.Equal(t, webURI, back)
}

func TestToWebURI_SGLN(t *testing.T) {
	got, err := ToWebURI("urn:epc:id:sgln:030001.111111.0")
	require.NoError(t, err)
	assert.Equal(t, "https://id.gs1.org/414/0300011111116", got)
}

func TestToWebURI_UnknownScheme(t *testing.T) {
	_, err := ToWebURI("urn:epc:id:bogus:1.2.3")
	assert.True(t, errors.Is(err, model.ErrInvalidIdentifier))
}

func TestMod10CheckDigit(t *testing.T) {
	assert.Equal(t, "1", Mod10CheckDigit("1234567890123"))
}
