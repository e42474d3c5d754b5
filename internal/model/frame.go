package model

import "time"

// DocumentKind distinguishes the two top-level EPCIS document shapes.
type DocumentKind int

const (
	DocumentKindCapture DocumentKind = iota
	DocumentKindQuery
)

// ContextEntry is one element of a JSON-LD @context array: either the
// canonical context URL (Prefix == "") or a single-key {prefix: URI} map.
type ContextEntry struct {
	URL    string // set when this entry is the bare canonical/region context URL
	Prefix string // set together with URI for a {prefix: URI} namespace entry
	URI    string
}

// IsURL reports whether this entry is a bare context URL rather than a
// {prefix: URI} namespace binding.
func (c ContextEntry) IsURL() bool {
	return c.URL != ""
}

// FrameAttrs carries everything the collector's Start needs to emit the
// document root and header.
type FrameAttrs struct {
	Kind           DocumentKind
	SchemaVersion  SchemaVersion
	Format         Format
	CreationDate   time.Time
	Context        []ContextEntry    // JSON-LD only
	Namespaces     map[string]string // XML only: prefix -> URI, document scope
	SubscriptionID *string           // query documents only
	QueryName      *string           // query documents only
}

// DocumentFrame is the decoded document envelope produced by a C5 decoder,
// populated alongside the event stream it wraps.
type DocumentFrame struct {
	FrameAttrs

	// SingleEvent is true when the input's root element/object was itself
	// an event rather than a document wrapper; in that case the frame
	// carries no header/footer and exactly one event is emitted.
	SingleEvent bool
}
