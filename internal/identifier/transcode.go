// Package identifier implements the bidirectional GS1 EPC URN <-> Digital
// Link Web-URI transcoder (C4), extending the teacher's gs1_utils.go GTIN/
// GLN/SSCC parsing into the full scheme table named in spec.md §4.4.
package identifier

import (
	"fmt"
	"strings"

	"github.com/trackvision/epcis-convert/internal/model"
)

const digitalLinkBase = "https://id.gs1.org"

// ToWebURI converts an EPC URN (urn:epc:id:... or urn:epc:idpat:...) into
// its GS1 Digital Link Web-URI form.
func ToWebURI(urn string) (string, error) {
	def, classLevel, segments, err := schemeForURN(urn)
	if err != nil {
		return "", err
	}

	primary, secondary, _, err := def.build(segments)
	if err != nil {
		return "", err
	}

	if classLevel {
		secondary = ""
	}

	out := fmt.Sprintf("%s/%s/%s", digitalLinkBase, def.aiPrimary, primary)
	if secondary != "" && def.aiSecondary != "" {
		out = fmt.Sprintf("%s/%s/%s", out, def.aiSecondary, secondary)
	}
	return out, nil
}

// aiPair is one application-identifier/value segment of a parsed Digital
// Link path.
type aiPair struct {
	ai    string
	value string
}

// parseDigitalLinkPath splits "https://id.gs1.org/01/VALUE/21/VALUE" into
// its AI/value pairs. A single trailing slash is ignored; an unpaired
// trailing segment makes the path invalid, and a query string is not
// stripped (it stays part of the last value).
func parseDigitalLinkPath(uri string) ([]aiPair, error) {
	rest, ok := strings.CutPrefix(uri, digitalLinkBase+"/")
	if !ok {
		// Accept any https://.../AI/value/... host, not just id.gs1.org,
		// since region-specific resolvers exist.
		idx := strings.Index(uri, "://")
		if idx < 0 {
			return nil, fmt.Errorf("identifier: %q is not a Web-URI: %w", uri, model.ErrInvalidIdentifier)
		}
		slash := strings.Index(uri[idx+3:], "/")
		if slash < 0 {
			return nil, fmt.Errorf("identifier: %q has no path: %w", uri, model.ErrInvalidIdentifier)
		}
		rest = uri[idx+3+slash+1:]
	}

	segs := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if len(segs)%2 != 0 {
		return nil, fmt.Errorf("identifier: %q has an odd number of path segments: %w", uri, model.ErrInvalidIdentifier)
	}

	pairs := make([]aiPair, 0, len(segs)/2)
	for i := 0; i < len(segs); i += 2 {
		pairs = append(pairs, aiPair{ai: segs[i], value: segs[i+1]})
	}
	return pairs, nil
}

// schemeForAIPairs resolves the parsed AI/value pairs to a scheme. Several
// schemes share a primary AI (e.g. SGTIN/UPUI/LGTIN all render under AI
// 01), so candidates are tried in registration order, preferring one whose
// secondary AI matches a pair actually present before falling back to the
// first registered match for the primary AI alone.
func schemeForAIPairs(pairs []aiPair) (*scheme, bool) {
	primaryAI := pairs[0].ai
	secondaryAI := ""
	if len(pairs) > 1 {
		secondaryAI = pairs[1].ai
	}

	var firstMatch *scheme
	for _, def := range allSchemes {
		if def.aiPrimary != primaryAI {
			continue
		}
		if firstMatch == nil {
			firstMatch = def
		}
		if secondaryAI != "" && def.aiSecondary == secondaryAI {
			return def, true
		}
	}
	if firstMatch != nil {
		return firstMatch, true
	}
	return nil, false
}

// ToURN converts a GS1 Digital Link Web-URI into its EPC URN form.
// gcpLengthHint must be positive: the Digital Link form carries no
// partition marker, so the GCP/item-reference split cannot be recovered
// from the value alone (spec.md S5).
func ToURN(webURI string, gcpLengthHint int) (*model.URNResult, error) {
	pairs, err := parseDigitalLinkPath(webURI)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("identifier: %q has no AI/value pairs: %w", webURI, model.ErrInvalidIdentifier)
	}

	def, ok := schemeForAIPairs(pairs)
	if !ok {
		return nil, fmt.Errorf("identifier: unrecognized application identifier %q: %w", pairs[0].ai, model.ErrInvalidIdentifier)
	}

	primary := pairs[0].value
	secondary := ""
	if len(pairs) > 1 && def.aiSecondary != "" {
		for _, p := range pairs[1:] {
			if p.ai == def.aiSecondary {
				secondary = p.value
				break
			}
		}
	}

	if gcpLengthHint <= 0 {
		return nil, fmt.Errorf("identifier: %w", model.ErrUnknownGcpLength)
	}

	segments, _, err := def.fromWebURI(primary, secondary, gcpLengthHint)
	if err != nil {
		return nil, err
	}

	classLevel := secondary == "" && def.aiSecondary != ""
	urn := renderURN(def.name, classLevel, segments)

	gtin := primary
	if def.name != model.SchemeSGTIN && def.name != model.SchemeUPUI && def.name != model.SchemeLGTIN {
		gtin = ""
	}

	return &model.URNResult{
		GTIN:        gtin,
		Serial:      secondary,
		AsURN:       urn,
		AsCaptured:  webURI,
		CanonicalDL: webURI,
	}, nil
}

func renderURN(name model.IdentifierScheme, classLevel bool, segments []string) string {
	namespace := "urn:epc:id:"
	if classLevel {
		namespace = "urn:epc:idpat:"
	}
	return namespace + name.String() + ":" + strings.Join(segments, ".")
}

// GCPLength returns the GCP length implied by a well-formed URN: the URN's
// dot-separated company-prefix segment makes the split unambiguous,
// satisfying the data-model invariant "URN form implies the GCP length".
// Callers round-tripping to_urn(to_web_uri(u)) pass this as the GCP hint.
func GCPLength(urn string) (int, error) {
	_, _, segments, err := schemeForURN(urn)
	if err != nil {
		return 0, err
	}
	if len(segments) == 0 {
		return 0, fmt.Errorf("identifier: %w", model.ErrInvalidIdentifier)
	}
	return len(segments[0]), nil
}
