package nsmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectedPrefixesExcludeCbvmda(t *testing.T) {
	assert.True(t, IsProtected("xsi"))
	assert.True(t, IsProtected("epcis"))
	assert.False(t, IsProtected("cbvmda"))
}

func TestDocumentScopeNotReemittedPerEvent(t *testing.T) {
	r := NewResolver()
	r.PopulateDocument("https://ns.example.com/custom", "ex")
	r.PopulateEvent("https://ns.example.com/custom", "ex")

	assert.Empty(t, r.EmittableEvent())
}

func TestEventOnlyNamespaceIsEmittable(t *testing.T) {
	r := NewResolver()
	r.PopulateEvent("https://ns.example.com/eventonly", "eo")

	got := r.EmittableEvent()
	assert.Equal(t, map[string]string{"eo": "https://ns.example.com/eventonly"}, got)
}

func TestResetEventClearsOnlyEventScope(t *testing.T) {
	r := NewResolver()
	r.PopulateDocument("https://ns.example.com/doc", "d")
	r.PopulateEvent("https://ns.example.com/ev", "e")

	r.ResetEvent()

	assert.Empty(t, r.AllEvent())
	assert.Equal(t, map[string]string{"d": "https://ns.example.com/doc"}, r.AllDocument())
}

func TestResetAllClearsBothScopes(t *testing.T) {
	r := NewResolver()
	r.PopulateDocument("https://ns.example.com/doc", "d")
	r.PopulateEvent("https://ns.example.com/ev", "e")

	r.ResetAll()

	assert.Empty(t, r.AllDocument())
	assert.Empty(t, r.AllEvent())
}
