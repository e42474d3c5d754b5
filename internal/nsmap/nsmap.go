// Package nsmap tracks document-level and per-event XML namespace
// prefix<->URI bindings (C2), replacing the process-wide singleton the
// original implementation used with a value threaded per conversion.
package nsmap

// protected is the set of prefixes that are recognized but never
// re-emitted per event. cbvmda is deliberately excluded: it is
// legitimately used in ILMD and must not be filtered.
var protected = map[string]string{
	"xml":  "http://www.w3.org/XML/1998/namespace",
	"xsi":  "http://www.w3.org/2001/XMLSchema-instance",
	"xsd":  "http://www.w3.org/2001/XMLSchema",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"owl":  "http://www.w3.org/2002/07/owl#",
	"epcis": "urn:epcglobal:epcis:xsd:1",
	"epcis2": "urn:epcglobal:epcis:xsd:2",
	"sbdh": "http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader",
}

// IsProtected reports whether prefix is in the protected set.
func IsProtected(prefix string) bool {
	_, ok := protected[prefix]
	return ok
}

// Resolver holds document-scope and event-scope prefix<->URI bindings.
// Zero value is ready to use. Not safe for concurrent use; one instance
// per conversion.
type Resolver struct {
	docPrefixToURI map[string]string
	docURIToPrefix map[string]string

	eventPrefixToURI map[string]string
	eventURIToPrefix map[string]string
}

// NewResolver returns a Resolver ready to populate.
func NewResolver() *Resolver {
	return &Resolver{
		docPrefixToURI:   map[string]string{},
		docURIToPrefix:   map[string]string{},
		eventPrefixToURI: map[string]string{},
		eventURIToPrefix: map[string]string{},
	}
}

func (r *Resolver) ensure() {
	if r.docPrefixToURI == nil {
		r.docPrefixToURI = map[string]string{}
		r.docURIToPrefix = map[string]string{}
		r.eventPrefixToURI = map[string]string{}
		r.eventURIToPrefix = map[string]string{}
	}
}

// PopulateDocument binds uri<->prefix at document scope. Invariant:
// prefixes are unique within the scope.
func (r *Resolver) PopulateDocument(uri, prefix string) {
	r.ensure()
	r.docPrefixToURI[prefix] = uri
	r.docURIToPrefix[uri] = prefix
}

// PopulateEvent binds uri<->prefix at event scope. A URI already carried
// at document scope must not be re-declared per event; callers filter via
// AtDocumentScope before calling this for emission, but PopulateEvent
// itself always records the binding so parsing (which must capture
// whatever the input declared) stays lossless.
func (r *Resolver) PopulateEvent(uri, prefix string) {
	r.ensure()
	r.eventPrefixToURI[prefix] = uri
	r.eventURIToPrefix[uri] = prefix
}

// AllDocument returns the current document-scope prefix->URI bindings.
func (r *Resolver) AllDocument() map[string]string {
	r.ensure()
	out := make(map[string]string, len(r.docPrefixToURI))
	for k, v := range r.docPrefixToURI {
		out[k] = v
	}
	return out
}

// AllEvent returns the current event-scope prefix->URI bindings.
func (r *Resolver) AllEvent() map[string]string {
	r.ensure()
	out := make(map[string]string, len(r.eventPrefixToURI))
	for k, v := range r.eventPrefixToURI {
		out[k] = v
	}
	return out
}

// ResetEvent clears the event-scope bindings after an event has been
// emitted.
func (r *Resolver) ResetEvent() {
	r.ensure()
	r.eventPrefixToURI = map[string]string{}
	r.eventURIToPrefix = map[string]string{}
}

// ResetAll clears both scopes, for reuse at a new document's start.
func (r *Resolver) ResetAll() {
	r.docPrefixToURI = map[string]string{}
	r.docURIToPrefix = map[string]string{}
	r.eventPrefixToURI = map[string]string{}
	r.eventURIToPrefix = map[string]string{}
}

// AtDocumentScope reports whether uri is already bound at document scope.
func (r *Resolver) AtDocumentScope(uri string) bool {
	r.ensure()
	_, ok := r.docURIToPrefix[uri]
	return ok
}

// EmittableEvent returns the event-scope bindings that should actually be
// written to output: those whose URI is neither already at document scope
// nor in the protected set. This is the delegating-writer filter the XML
// encoder (C5) applies.
func (r *Resolver) EmittableEvent() map[string]string {
	r.ensure()
	out := map[string]string{}
	for prefix, uri := range r.eventPrefixToURI {
		if IsProtected(prefix) {
			continue
		}
		if r.AtDocumentScope(uri) {
			continue
		}
		out[prefix] = uri
	}
	return out
}
