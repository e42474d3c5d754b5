package contextreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

func TestSelectFallsBackToDefault(t *testing.T) {
	reg := NewDefaultRegistry()

	h := reg.Select([]string{"https://unknown.example.com/context.jsonld"})
	assert.Equal(t, "default", h.Name())
}

func TestSelectMatchesCanonicalURL(t *testing.T) {
	reg := NewDefaultRegistry()

	h := reg.Select([]string{CanonicalContextURL})
	assert.Equal(t, "default", h.Name())
}

func TestSelectMatchesRegionHandler(t *testing.T) {
	reg := NewDefaultRegistry()

	h := reg.Select([]string{"https://ref.gs1.org/standards/epcis/2.0.0/gs1egypthc-epcis-context.jsonld"})
	assert.Equal(t, "gs1egypthc", h.Name())
}

func TestSelectByTokenPicksRegionHandler(t *testing.T) {
	reg := NewDefaultRegistry()

	h := reg.SelectByToken("gs1egypthc")
	assert.Equal(t, "gs1egypthc", h.Name())

	fallback := reg.SelectByToken("")
	assert.Equal(t, "default", fallback.Name())
}

func TestDefaultHandlerRoundTripsNamespacesWithoutLeakingIntoDocScope(t *testing.T) {
	ns := nsmap.NewResolver()
	ns.PopulateDocument("https://ns.example.com/custom", "ex")

	h := &DefaultHandler{}
	entries := h.EmitContext(ns)
	assert.Equal(t, CanonicalContextURL, entries[0].URL)

	ns2 := nsmap.NewResolver()
	h.PopulateFromContext(entries, ns2)
	assert.Equal(t, "https://ns.example.com/custom", ns2.AllDocument()["ex"])
}
