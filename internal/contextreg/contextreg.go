// Package contextreg implements the JSON-LD @context Handler registry
// (C3): a small first-match-wins plug-in set for interpreting and
// producing the @context array, replacing service-lookup discovery with
// an explicit, statically built registry.
package contextreg

import (
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

// CanonicalContextURL is the default EPCIS 2.0 JSON-LD context.
const CanonicalContextURL = "https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld"

// Handler decides whether a document's @context binds to it, and can both
// emit and populate context/namespace bindings for that context.
type Handler interface {
	// Name identifies the handler for Select-by-token lookups (the
	// GS1-Extensions header value, e.g. "gs1egypthc").
	Name() string

	// Matches reports whether this handler owns the given @context string
	// entries (the entries before any {prefix: URI} maps).
	Matches(entries []string) bool

	// EmitContext returns the @context entries to write: the canonical
	// (or region) URL first, followed by any document-scope namespaces
	// not already implied by that URL.
	EmitContext(ns *nsmap.Resolver) []model.ContextEntry

	// PopulateFromContext populates ns with the prefixes implied by a
	// parsed @context array.
	PopulateFromContext(entries []model.ContextEntry, ns *nsmap.Resolver)
}

// Registry holds an ordered set of Handlers.
type Registry struct {
	handlers []Handler
	fallback Handler
}

// NewDefaultRegistry returns a Registry pre-populated with DefaultHandler
// and GS1RegionHandler built-ins, DefaultHandler as the fallback.
func NewDefaultRegistry() *Registry {
	def := &DefaultHandler{}
	reg := &Registry{fallback: def}
	reg.Register(def)
	reg.Register(NewGS1RegionHandler("gs1egypthc", "https://ref.gs1.org/standards/epcis/2.0.0/gs1egypthc-epcis-context.jsonld"))
	reg.Register(NewGS1RegionHandler("gs1ushc", "https://ref.gs1.org/standards/epcis/2.0.0/gs1ushc-epcis-context.jsonld"))
	return reg
}

// Register appends h to the registry. Order determines match priority.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Select returns the first handler whose Matches(entries) is true,
// falling back to the default handler.
func (r *Registry) Select(entries []string) Handler {
	for _, h := range r.handlers {
		if h.Matches(entries) {
			return h
		}
	}
	return r.fallback
}

// SelectByToken returns the handler named by the GS1-Extensions header
// token, falling back to the default handler when token is empty or
// unknown.
func (r *Registry) SelectByToken(token string) Handler {
	if token == "" {
		return r.fallback
	}
	for _, h := range r.handlers {
		if h.Name() == token {
			return h
		}
	}
	return r.fallback
}

// DefaultHandler emits/matches the canonical EPCIS 2.0 context URL.
type DefaultHandler struct{}

func (h *DefaultHandler) Name() string { return "default" }

func (h *DefaultHandler) Matches(entries []string) bool {
	for _, e := range entries {
		if e == CanonicalContextURL {
			return true
		}
	}
	return len(entries) == 0
}

func (h *DefaultHandler) EmitContext(ns *nsmap.Resolver) []model.ContextEntry {
	out := []model.ContextEntry{{URL: CanonicalContextURL}}
	for prefix, uri := range ns.AllDocument() {
		if nsmap.IsProtected(prefix) {
			continue
		}
		out = append(out, model.ContextEntry{Prefix: prefix, URI: uri})
	}
	return out
}

func (h *DefaultHandler) PopulateFromContext(entries []model.ContextEntry, ns *nsmap.Resolver) {
	for _, e := range entries {
		if e.IsURL() {
			continue
		}
		ns.PopulateDocument(e.URI, e.Prefix)
	}
}

// GS1RegionHandler matches a single region-specific context URL (e.g. a
// national healthcare profile) and keeps it from leaking into document
// namespace scope.
type GS1RegionHandler struct {
	name string
	url  string
}

// NewGS1RegionHandler builds a handler bound to a specific region context
// URL, selected by the GS1-Extensions header token name.
func NewGS1RegionHandler(name, url string) *GS1RegionHandler {
	return &GS1RegionHandler{name: name, url: url}
}

func (h *GS1RegionHandler) Name() string { return h.name }

func (h *GS1RegionHandler) Matches(entries []string) bool {
	for _, e := range entries {
		if e == h.url {
			return true
		}
	}
	return false
}

func (h *GS1RegionHandler) EmitContext(ns *nsmap.Resolver) []model.ContextEntry {
	out := []model.ContextEntry{{URL: h.url}}
	for prefix, uri := range ns.AllDocument() {
		if nsmap.IsProtected(prefix) {
			continue
		}
		out = append(out, model.ContextEntry{Prefix: prefix, URI: uri})
	}
	return out
}

func (h *GS1RegionHandler) PopulateFromContext(entries []model.ContextEntry, ns *nsmap.Resolver) {
	for _, e := range entries {
		if e.IsURL() {
			continue
		}
		ns.PopulateDocument(e.URI, e.Prefix)
	}
}
