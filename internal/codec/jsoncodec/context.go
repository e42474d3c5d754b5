package jsoncodec

import (
	"encoding/json"
	"fmt"

	"github.com/trackvision/epcis-convert/internal/model"
)

// decodeContext parses a raw "@context" value, which per JSON-LD may be a
// bare string (the canonical context URL) or an array mixing bare URL
// strings with single-key {prefix: URI} objects.
func decodeContext(raw json.RawMessage) ([]model.ContextEntry, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []model.ContextEntry{{URL: asString}}, nil
	}

	var asArray []json.RawMessage
	if err := json.Unmarshal(raw, &asArray); err != nil {
		return nil, fmt.Errorf("jsoncodec: malformed @context: %w", model.ErrMalformedInput)
	}

	entries := make([]model.ContextEntry, 0, len(asArray))
	for _, item := range asArray {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			entries = append(entries, model.ContextEntry{URL: url})
			continue
		}
		var binding map[string]string
		if err := json.Unmarshal(item, &binding); err != nil {
			return nil, fmt.Errorf("jsoncodec: malformed @context entry: %w", model.ErrMalformedInput)
		}
		for prefix, uri := range binding {
			entries = append(entries, model.ContextEntry{Prefix: prefix, URI: uri})
		}
	}
	return entries, nil
}

// encodeContext renders entries back to the JSON-LD @context shape: a bare
// string when there is exactly one URL entry and nothing else, otherwise an
// array.
func encodeContext(entries []model.ContextEntry) any {
	if len(entries) == 1 && entries[0].IsURL() {
		return entries[0].URL
	}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if e.IsURL() {
			out = append(out, e.URL)
		} else {
			out = append(out, map[string]string{e.Prefix: e.URI})
		}
	}
	return out
}

// contextURLs extracts the bare URL entries, the form contextreg.Registry
// matches against.
func contextURLs(entries []model.ContextEntry) []string {
	var urls []string
	for _, e := range entries {
		if e.IsURL() {
			urls = append(urls, e.URL)
		}
	}
	return urls
}
