package identifier

import (
	"fmt"
	"strings"

	"github.com/trackvision/epcis-convert/internal/model"
)

// scheme is the per-GS1-scheme rule: how to parse/render its URN and
// Digital Link Web-URI forms. Grounded on the teacher's ParseGLNFromSGLN /
// ParseGTINFromSGTIN / ParseSSCCFromURN (gs1_utils.go), generalized from
// three hand-written schemes to the full table.
type scheme struct {
	name model.IdentifierScheme

	// aiPrimary/aiSecondary are the GS1 Digital Link application
	// identifiers this scheme renders under (secondary carries the
	// serial/lot/extension when present; empty when the scheme has none).
	aiPrimary   string
	aiSecondary string

	// build assembles the canonical identifier value and, for
	// instance-level identifiers, the secondary segment from parsed URN
	// dot-segments.
	build func(segments []string) (primary, secondary string, extra map[string]string, err error)

	// fromWebURI reconstructs URN dot-segments from a parsed primary/
	// secondary Digital Link value plus the caller-supplied GCP length.
	fromWebURI func(primary, secondary string, gcpLength int) (segments []string, extra map[string]string, err error)
}

var (
	schemesByName = map[string]*scheme{}
	allSchemes    []*scheme
)

func register(s *scheme) {
	schemesByName[s.name.String()] = s
	allSchemes = append(allSchemes, s)
}

func init() {
	register(gtinLikeScheme(model.SchemeSGTIN, "01", "21"))
	register(gtinLikeScheme(model.SchemeUPUI, "01", "21"))
	register(glnLikeScheme(model.SchemeSGLN, "414", "254"))
	register(glnLikeScheme(model.SchemePGLN, "417", ""))
	register(docLikeScheme(model.SchemeGRAI, "8003", ""))
	register(docLikeScheme(model.SchemeGDTI, "253", ""))
	register(docLikeScheme(model.SchemeGCN, "255", ""))
	register(serviceLikeScheme(model.SchemeGSRN, "8018"))
	register(serviceLikeScheme(model.SchemeGSIN, "402"))
	register(freeformScheme(model.SchemeGIAI, "8004", false))
	register(freeformScheme(model.SchemeGINC, "401", false))
	register(freeformScheme(model.SchemeCPI, "8010", true))
	register(itipScheme())
	register(lgtinScheme())
}

// splitIndicatorItemRef splits a GTIN-style "indicator+itemRef" segment
// into its two parts, matching the teacher's ParseGTINFromSGTIN.
func splitIndicatorItemRef(seg string) (indicator, itemRef string) {
	if seg == "" {
		return "0", ""
	}
	return seg[0:1], seg[1:]
}

// buildGTIN14 reproduces ParseGTINFromSGTIN's algorithm: indicator +
// companyPrefix + itemRef, normalized to 13 digits, plus a mod-10 check
// digit.
func buildGTIN14(companyPrefix, indicatorItemRef string) string {
	indicator, itemRef := splitIndicatorItemRef(indicatorItemRef)
	base13 := normalizeToLength(indicator+companyPrefix+itemRef, 13)
	return base13 + Mod10CheckDigit(base13)
}

func gtinLikeScheme(name model.IdentifierScheme, aiPrimary, aiSerial string) *scheme {
	return &scheme{
		name:        name,
		aiPrimary:   aiPrimary,
		aiSecondary: aiSerial,
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 2 {
				return "", "", nil, fmt.Errorf("%s: expected company prefix and item reference: %w", name, model.ErrInvalidIdentifier)
			}
			gtin := buildGTIN14(segments[0], segments[1])
			serial := ""
			if len(segments) >= 3 {
				serial = segments[2]
			}
			return gtin, serial, map[string]string{"gcp": segments[0], "itemRef": segments[1]}, nil
		},
		fromWebURI: func(gtin, serial string, gcpLength int) ([]string, map[string]string, error) {
			if len(gtin) != 14 {
				return nil, nil, fmt.Errorf("%s: GTIN must be 14 digits: %w", name, model.ErrInvalidIdentifier)
			}
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			indicator := gtin[0:1]
			rest := gtin[1 : len(gtin)-1] // drop indicator and check digit -> 12-digit base
			if gcpLength > len(rest) {
				return nil, nil, fmt.Errorf("%s: gcp length %d exceeds base: %w", name, gcpLength, model.ErrInvalidIdentifier)
			}
			companyPrefix := rest[:gcpLength]
			itemRef := rest[gcpLength:]
			segs := []string{companyPrefix, indicator + itemRef}
			if serial != "" {
				segs = append(segs, serial)
			}
			return segs, map[string]string{"gcp": companyPrefix, "itemRef": indicator + itemRef}, nil
		},
	}
}

func glnLikeScheme(name model.IdentifierScheme, aiPrimary, aiExtension string) *scheme {
	return &scheme{
		name:        name,
		aiPrimary:   aiPrimary,
		aiSecondary: aiExtension,
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 1 {
				return "", "", nil, fmt.Errorf("%s: expected at least company prefix: %w", name, model.ErrInvalidIdentifier)
			}
			locRef := ""
			if len(segments) >= 2 {
				locRef = segments[1]
			}
			base12 := normalizeToLength(segments[0]+locRef, 12)
			gln := base12 + Mod10CheckDigit(base12)
			ext := ""
			if len(segments) >= 3 && segments[2] != "0" {
				ext = segments[2]
			}
			return gln, ext, map[string]string{"gcp": segments[0]}, nil
		},
		fromWebURI: func(gln, ext string, gcpLength int) ([]string, map[string]string, error) {
			if len(gln) != 13 {
				return nil, nil, fmt.Errorf("%s: GLN must be 13 digits: %w", name, model.ErrInvalidIdentifier)
			}
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			base := gln[:len(gln)-1]
			if gcpLength > len(base) {
				return nil, nil, fmt.Errorf("%s: gcp length exceeds base: %w", name, model.ErrInvalidIdentifier)
			}
			companyPrefix := base[:gcpLength]
			locRef := base[gcpLength:]
			segs := []string{companyPrefix, locRef}
			if ext != "" {
				segs = append(segs, ext)
			}
			return segs, map[string]string{"gcp": companyPrefix}, nil
		},
	}
}

// docLikeScheme covers GRAI/GDTI/GCN: companyPrefix + typeRef, mod-10
// checked as a 13-digit base, plus an appended serial segment the
// checksum does not cover. All of it renders as one primary AI value:
// "0", the 12-digit base, the check digit, then the serial.
func docLikeScheme(name model.IdentifierScheme, aiPrimary, aiSecondary string) *scheme {
	return &scheme{
		name:        name,
		aiPrimary:   aiPrimary,
		aiSecondary: aiSecondary,
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 2 {
				return "", "", nil, fmt.Errorf("%s: expected company prefix and reference: %w", name, model.ErrInvalidIdentifier)
			}
			base12 := normalizeToLength(segments[0]+segments[1], 12)
			doc13 := "0" + base12
			check := Mod10CheckDigit(doc13)
			serial := ""
			if len(segments) >= 3 {
				serial = segments[2]
			}
			return doc13 + check + serial, "", map[string]string{"gcp": segments[0]}, nil
		},
		fromWebURI: func(value, _ string, gcpLength int) ([]string, map[string]string, error) {
			if len(value) < 14 {
				return nil, nil, fmt.Errorf("%s: value must be at least 14 digits: %w", name, model.ErrInvalidIdentifier)
			}
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			base := value[1:13] // drop leading zero digit and check digit
			serial := value[14:]
			if gcpLength > len(base) {
				return nil, nil, fmt.Errorf("%s: gcp length exceeds base: %w", name, model.ErrInvalidIdentifier)
			}
			companyPrefix := base[:gcpLength]
			ref := base[gcpLength:]
			segs := []string{companyPrefix, ref}
			if serial != "" {
				segs = append(segs, serial)
			}
			return segs, map[string]string{"gcp": companyPrefix}, nil
		},
	}
}

// serviceLikeScheme covers GSRN/GSIN: companyPrefix + reference,
// normalized to 17 digits plus a mod-10 check digit, no further segment.
func serviceLikeScheme(name model.IdentifierScheme, aiPrimary string) *scheme {
	return &scheme{
		name:      name,
		aiPrimary: aiPrimary,
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 2 {
				return "", "", nil, fmt.Errorf("%s: expected company prefix and reference: %w", name, model.ErrInvalidIdentifier)
			}
			base17 := normalizeToLength(segments[0]+segments[1], 17)
			return base17 + Mod10CheckDigit(base17), "", map[string]string{"gcp": segments[0]}, nil
		},
		fromWebURI: func(value18, _ string, gcpLength int) ([]string, map[string]string, error) {
			if len(value18) != 18 {
				return nil, nil, fmt.Errorf("%s: value must be 18 digits: %w", name, model.ErrInvalidIdentifier)
			}
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			base := value18[:len(value18)-1]
			if gcpLength > len(base) {
				return nil, nil, fmt.Errorf("%s: gcp length exceeds base: %w", name, model.ErrInvalidIdentifier)
			}
			companyPrefix := base[:gcpLength]
			ref := base[gcpLength:]
			return []string{companyPrefix, ref}, map[string]string{"gcp": companyPrefix}, nil
		},
	}
}

// freeformScheme covers GIAI/GINC/CPI: alphanumeric company prefix +
// reference with no positional check digit (CPI optionally appends a
// mod-37/36 check-character pair).
func freeformScheme(name model.IdentifierScheme, aiPrimary string, withCheckChars bool) *scheme {
	return &scheme{
		name:      name,
		aiPrimary: aiPrimary,
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 2 {
				return "", "", nil, fmt.Errorf("%s: expected company prefix and reference: %w", name, model.ErrInvalidIdentifier)
			}
			value := segments[0] + segments[1]
			if withCheckChars {
				value += Mod3736CheckCharacters(value)
			}
			return value, "", map[string]string{"gcp": segments[0]}, nil
		},
		fromWebURI: func(value, _ string, gcpLength int) ([]string, map[string]string, error) {
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			base := value
			if withCheckChars && len(value) > 2 {
				base = value[:len(value)-2]
			}
			if gcpLength > len(base) {
				return nil, nil, fmt.Errorf("%s: gcp length exceeds base: %w", name, model.ErrInvalidIdentifier)
			}
			return []string{base[:gcpLength], base[gcpLength:]}, map[string]string{"gcp": base[:gcpLength]}, nil
		},
	}
}

// itipScheme covers ITIP: a GTIN-shaped base plus piece/total-pieces
// segments, supported both as an instance identifier (with AI 21 serial)
// and, via the idpat namespace, as a class identifier with a trailing "*"
// in place of the serial (spec.md S4).
func itipScheme() *scheme {
	return &scheme{
		name:        model.SchemeITIP,
		aiPrimary:   "8006",
		aiSecondary: "21",
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 4 {
				return "", "", nil, fmt.Errorf("itip: expected company prefix, item ref, piece and total: %w", model.ErrInvalidIdentifier)
			}
			gtin := buildGTIN14(segments[0], segments[1])
			piece := normalizeToLength(segments[2], 2)
			total := normalizeToLength(segments[3], 2)
			primary := gtin + piece + total
			serial := ""
			if len(segments) >= 5 && segments[4] != "*" {
				serial = segments[4]
			}
			return primary, serial, map[string]string{"gcp": segments[0], "itemRef": segments[1], "piece": piece, "total": total}, nil
		},
		fromWebURI: func(value18, serial string, gcpLength int) ([]string, map[string]string, error) {
			if len(value18) != 18 {
				return nil, nil, fmt.Errorf("itip: value must be 18 digits: %w", model.ErrInvalidIdentifier)
			}
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			gtin := value18[:14]
			piece := value18[14:16]
			total := value18[16:18]
			indicator := gtin[0:1]
			rest := gtin[1 : len(gtin)-1]
			if gcpLength > len(rest) {
				return nil, nil, fmt.Errorf("itip: gcp length exceeds base: %w", model.ErrInvalidIdentifier)
			}
			companyPrefix := rest[:gcpLength]
			itemRef := rest[gcpLength:]
			segs := []string{companyPrefix, indicator + itemRef, piece, total}
			if serial != "" {
				segs = append(segs, serial)
			} else {
				segs = append(segs, "*")
			}
			return segs, map[string]string{"gcp": companyPrefix}, nil
		},
	}
}

// lgtinScheme covers LGTIN: a GTIN-shaped base identifying a lot/batch
// rather than a serialized instance (AI 01 + AI 10 lot number).
func lgtinScheme() *scheme {
	return &scheme{
		name:        model.SchemeLGTIN,
		aiPrimary:   "01",
		aiSecondary: "10",
		build: func(segments []string) (string, string, map[string]string, error) {
			if len(segments) < 3 {
				return "", "", nil, fmt.Errorf("lgtin: expected company prefix, item ref and lot: %w", model.ErrInvalidIdentifier)
			}
			gtin := buildGTIN14(segments[0], segments[1])
			return gtin, segments[2], map[string]string{"gcp": segments[0], "itemRef": segments[1], "lot": segments[2]}, nil
		},
		fromWebURI: func(gtin, lot string, gcpLength int) ([]string, map[string]string, error) {
			if len(gtin) != 14 {
				return nil, nil, fmt.Errorf("lgtin: GTIN must be 14 digits: %w", model.ErrInvalidIdentifier)
			}
			if gcpLength <= 0 {
				return nil, nil, model.ErrUnknownGcpLength
			}
			indicator := gtin[0:1]
			rest := gtin[1 : len(gtin)-1]
			if gcpLength > len(rest) {
				return nil, nil, fmt.Errorf("lgtin: gcp length exceeds base: %w", model.ErrInvalidIdentifier)
			}
			companyPrefix := rest[:gcpLength]
			itemRef := rest[gcpLength:]
			return []string{companyPrefix, indicator + itemRef, lot}, map[string]string{"gcp": companyPrefix, "lot": lot}, nil
		},
	}
}

// schemeForURN extracts the scheme name from a "urn:epc:id:<scheme>:...",
// "urn:epc:idpat:<scheme>:..." or "urn:epc:class:<scheme>:..." URN, along
// with whether it is the idpat (class-level) namespace and the remaining
// dot-segments. The class namespace keeps its last segment (LGTIN's lot).
func schemeForURN(urn string) (s *scheme, classLevel bool, segments []string, err error) {
	var rest string
	var ok bool
	if rest, ok = strings.CutPrefix(urn, "urn:epc:id:"); ok {
		classLevel = false
	} else if rest, ok = strings.CutPrefix(urn, "urn:epc:idpat:"); ok {
		classLevel = true
	} else if rest, ok = strings.CutPrefix(urn, "urn:epc:class:"); ok {
		classLevel = false
	} else {
		return nil, false, nil, fmt.Errorf("identifier: %q is not an EPC URN: %w", urn, model.ErrInvalidIdentifier)
	}

	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, false, nil, fmt.Errorf("identifier: malformed URN %q: %w", urn, model.ErrInvalidIdentifier)
	}

	def, ok := schemesByName[parts[0]]
	if !ok {
		return nil, false, nil, fmt.Errorf("identifier: unknown scheme %q: %w", parts[0], model.ErrInvalidIdentifier)
	}

	return def, classLevel, strings.Split(parts[1], "."), nil
}
