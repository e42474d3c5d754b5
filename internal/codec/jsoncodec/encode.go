package jsoncodec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/trackvision/epcis-convert/internal/contextreg"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

// Encoder writes an EPCIS JSON-LD document, keeping the teacher's
// EPCISDocumentJSON canonical field order (@context, type, schemaVersion,
// creationDate, epcisBody) but streaming eventList elements one at a time
// instead of building a []map[string]interface{} for the whole body first.
type Encoder struct {
	w         io.Writer
	ns        *nsmap.Resolver
	handler   contextreg.Handler
	frame     *model.DocumentFrame
	wroteHead bool
	wroteAny  bool
	err       error
}

// NewEncoder prepares an Encoder; the document header is written lazily on
// the first Write call so handler.EmitContext sees every document-scope
// namespace the caller populated beforehand.
func NewEncoder(w io.Writer, frame *model.DocumentFrame, ns *nsmap.Resolver, handler contextreg.Handler) *Encoder {
	return &Encoder{w: w, ns: ns, handler: handler, frame: frame}
}

// docHead is the document header's canonical field order: @context, type,
// schemaVersion, creationDate. A plain map would marshal alphabetically
// (@context, creationDate, schemaVersion, type), which does not round-trip
// identically through tools that compare documents byte for byte.
type docHead struct {
	Context       any    `json:"@context"`
	Type          string `json:"type"`
	SchemaVersion string `json:"schemaVersion"`
	CreationDate  string `json:"creationDate"`
}

func (e *Encoder) writeHeader() error {
	if e.wroteHead {
		return nil
	}
	e.wroteHead = true

	docType := "EPCISDocument"
	if e.frame.Kind == model.DocumentKindQuery {
		docType = "EPCISQueryDocument"
	}

	context := e.handler.EmitContext(e.ns)
	head := docHead{
		Context:       encodeContext(context),
		Type:          docType,
		SchemaVersion: schemaVersionLiteral(e.frame.SchemaVersion),
		CreationDate:  formatEventTime(e.frame.CreationDate, ""),
	}
	headBytes, err := json.Marshal(head)
	if err != nil {
		return err
	}
	// Strip the closing brace so epcisBody/eventList can be streamed in.
	if _, err := e.w.Write(headBytes[:len(headBytes)-1]); err != nil {
		return err
	}
	_, err = io.WriteString(e.w, `,"epcisBody":{"eventList":[`)
	return err
}

func schemaVersionLiteral(v model.SchemaVersion) string {
	if v == model.SchemaVersion1_2 {
		return "1.2"
	}
	return "2.0"
}

// Write appends one event to the document's eventList.
func (e *Encoder) Write(ev model.EventVariant) error {
	if e.err != nil {
		return e.err
	}
	if err := e.writeHeader(); err != nil {
		e.err = err
		return err
	}

	body, err := eventToWire(ev, e.frame, e.ns)
	if err != nil {
		e.err = err
		return err
	}

	if e.wroteAny {
		if _, err := io.WriteString(e.w, ","); err != nil {
			e.err = err
			return err
		}
	}
	e.wroteAny = true
	_, err = e.w.Write(body)
	e.ns.ResetEvent()
	return err
}

// eventToWire renders ev as its canonically-ordered wire struct (type
// first, then the shared wireCore fields in their declared order, then the
// variant's own fields) instead of a map, since a map marshals its keys
// alphabetically and loses that order. A per-event "@context" (only
// present when ev introduced an extension namespace not already declared
// at the document level) is appended after the struct's own fields.
func eventToWire(ev model.EventVariant, frame *model.DocumentFrame, ns *nsmap.Resolver) ([]byte, error) {
	core := ev.CoreFields()
	coreWire := modelCoreToWire(*core)

	if len(core.SourceList) > 0 {
		list := make([]json.RawMessage, 0, len(core.SourceList))
		for _, s := range core.SourceList {
			raw, err := wireSourceDest{Type: s.Type, Value: s.Value}.marshalAs("source")
			if err != nil {
				return nil, err
			}
			list = append(list, raw)
		}
		coreWire.SourceList = list
	}
	if len(core.DestinationList) > 0 {
		list := make([]json.RawMessage, 0, len(core.DestinationList))
		for _, d := range core.DestinationList {
			raw, err := wireSourceDest{Type: d.Type, Value: d.Value}.marshalAs("destination")
			if err != nil {
				return nil, err
			}
			list = append(list, raw)
		}
		coreWire.DestinationList = list
	}

	switch v := ev.(type) {
	case *model.ObjectEvent:
		coreWire.Type = "ObjectEvent"
		w := wireObjectEvent{wireCore: coreWire}
		if len(v.EPCList) > 0 {
			w.EPCList = v.EPCList
		}
		if len(v.Quantity) > 0 {
			w.Quantity = quantityToWire(v.Quantity)
		}
		return marshalWithEventContext(w, ns)

	case *model.AggregationEvent:
		coreWire.Type = "AggregationEvent"
		w := wireAggregationEvent{wireCore: coreWire}
		if v.ParentID != nil {
			w.ParentID = *v.ParentID
		}
		if len(v.ChildEPCs) > 0 {
			w.ChildEPCs = v.ChildEPCs
		}
		if len(v.ChildQuantity) > 0 {
			w.ChildQuantity = quantityToWire(v.ChildQuantity)
		}
		return marshalWithEventContext(w, ns)

	case *model.TransactionEvent:
		coreWire.Type = "TransactionEvent"
		w := wireTransactionEvent{wireCore: coreWire}
		if len(v.BizTransactionList) > 0 {
			w.BizTransactionList = bizTxnToWire(v.BizTransactionList)
		}
		if v.ParentID != nil {
			w.ParentID = *v.ParentID
		}
		if len(v.EPCList) > 0 {
			w.EPCList = v.EPCList
		}
		if len(v.Quantity) > 0 {
			w.Quantity = quantityToWire(v.Quantity)
		}
		return marshalWithEventContext(w, ns)

	case *model.TransformationEvent:
		coreWire.Type = "TransformationEvent"
		w := wireTransformationEvent{wireCore: coreWire}
		if v.TransformationID != nil {
			w.TransformationID = *v.TransformationID
		}
		if len(v.InputEPCList) > 0 {
			w.InputEPCList = v.InputEPCList
		}
		if len(v.InputQuantity) > 0 {
			w.InputQuantity = quantityToWire(v.InputQuantity)
		}
		if len(v.OutputEPCList) > 0 {
			w.OutputEPCList = v.OutputEPCList
		}
		if len(v.OutputQuantity) > 0 {
			w.OutputQuantity = quantityToWire(v.OutputQuantity)
		}
		return marshalWithEventContext(w, ns)

	case *model.AssociationEvent:
		if frame.SchemaVersion == model.SchemaVersion1_2 {
			return nil, fmt.Errorf("jsoncodec: AssociationEvent has no 1.2 representation: %w", model.ErrUnsupportedConversion)
		}
		coreWire.Type = "AssociationEvent"
		w := wireAssociationEvent{wireCore: coreWire}
		if v.ParentID != nil {
			w.ParentID = *v.ParentID
		}
		if len(v.ChildEPCs) > 0 {
			w.ChildEPCs = v.ChildEPCs
		}
		if len(v.ChildQuantity) > 0 {
			w.ChildQuantity = quantityToWire(v.ChildQuantity)
		}
		return marshalWithEventContext(w, ns)

	default:
		return nil, fmt.Errorf("jsoncodec: unsupported event variant %T: %w", ev, model.ErrMalformedInput)
	}
}

// marshalWithEventContext marshals v (one of the wire*Event structs, which
// carry their fields in a fixed declared order) and, if ns collected any
// event-scope namespace bindings not already emitted at the document
// level, appends them as a trailing "@context" key rather than threading
// an extra struct field through every variant.
func marshalWithEventContext(v any, ns *nsmap.Resolver) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	emittable := ns.EmittableEvent()
	if len(emittable) == 0 {
		return data, nil
	}
	ctxEntries := make([]model.ContextEntry, 0, len(emittable))
	for prefix, uri := range emittable {
		ctxEntries = append(ctxEntries, model.ContextEntry{Prefix: prefix, URI: uri})
	}
	ctxBytes, err := json.Marshal(encodeContext(ctxEntries))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+len(ctxBytes)+16)
	out = append(out, data[:len(data)-1]...)
	out = append(out, []byte(`,"@context":`)...)
	out = append(out, ctxBytes...)
	out = append(out, '}')
	return out, nil
}

// Close finalizes the eventList array and document object.
func (e *Encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	if !e.wroteHead {
		if err := e.writeHeader(); err != nil {
			return err
		}
	}
	_, err := io.WriteString(e.w, "]}}")
	return err
}
