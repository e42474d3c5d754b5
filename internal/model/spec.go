package model

// Format is the closed set of interchange encodings.
type Format int

const (
	FormatXML Format = iota
	FormatJSONLD
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "XML"
	case FormatJSONLD:
		return "JSON-LD"
	default:
		return "unknown"
	}
}

// SchemaVersion is the closed set of supported EPCIS schema versions.
type SchemaVersion int

const (
	SchemaVersionUnknown SchemaVersion = iota
	SchemaVersion1_2
	SchemaVersion2_0
)

func (v SchemaVersion) String() string {
	switch v {
	case SchemaVersion1_2:
		return "1.2.0"
	case SchemaVersion2_0:
		return "2.0.0"
	default:
		return "unknown"
	}
}

// ParseSchemaVersion maps the literal captured by the prefix scanner
// ("1.2" or "2.0") to a SchemaVersion.
func ParseSchemaVersion(literal string) (SchemaVersion, bool) {
	switch literal {
	case "1.2":
		return SchemaVersion1_2, true
	case "2.0":
		return SchemaVersion2_0, true
	default:
		return SchemaVersionUnknown, false
	}
}

// OnFailureMode controls what the pipeline does when a per-event validator
// rejects an event.
type OnFailureMode int

const (
	OnFailureAbort OnFailureMode = iota
	OnFailureSkipAndContinue
)

// ConversionSpec is the immutable tuple describing one conversion request.
// It is passed by value and lives for the duration of a single conversion.
type ConversionSpec struct {
	FromFormat  Format
	FromVersion SchemaVersion // SchemaVersionUnknown means "let the detector fill this in"
	ToFormat    Format
	ToVersion   SchemaVersion

	// GS1Compliant12 toggles whether 1.2 output may carry 2.0-only
	// constructs (Association events, persistent disposition, sensor
	// elements). true = strict GS1 1.2 compliance (drop them).
	GS1Compliant12 bool

	OnFailure OnFailureMode

	// EPCPolicy / CBVPolicy carry the resolved GS1-EPC-Format /
	// GS1-CBV-XML-Format header values (or the config default when no
	// header was supplied). Zero value is "No_Preference".
	EPCPolicy RewritePolicy
	CBVPolicy CBVPolicy

	// GCPLengthHint supplies the GCP length every Web-URI -> URN rewrite
	// needs; no inference is attempted, so zero makes such a rewrite fail
	// with ErrUnknownGcpLength.
	GCPLengthHint int

	// ExtensionsToken selects a region Context Handler via the GS1-Extensions
	// header token (e.g. "gs1egypthc"); empty selects the default.
	ExtensionsToken string
}

// ResolveFromVersion fills FromVersion per the data-model invariant: when
// absent and FromFormat is JSON-LD, it resolves to 2.0.0 without scanning.
// Returns false when a scan is still required (FromFormat is XML).
func (s *ConversionSpec) ResolveFromVersion() bool {
	if s.FromVersion != SchemaVersionUnknown {
		return true
	}
	if s.FromFormat == FormatJSONLD {
		s.FromVersion = SchemaVersion2_0
		return true
	}
	return false
}
