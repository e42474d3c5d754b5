package jsoncodec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/trackvision/epcis-convert/internal/contextreg"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

// Decoder streams EPCIS events out of a JSON-LD document one at a time,
// driving encoding/json.Decoder.Token() through the document's top-level
// object and then Decode()-ing one eventList array element per Next call,
// rather than unmarshaling the whole body the way the teacher's
// EPCISDocumentJSON/EPCISBodyJSON does for its own (small) write path.
type Decoder struct {
	dec         *json.Decoder
	frame       *model.DocumentFrame
	ns          *nsmap.Resolver
	reg         *contextreg.Registry
	handler     contextreg.Handler
	seq         uint64
	done        bool
	singleEvent model.EventVariant
}

// NewDecoder reads the document object's top-level keys up to (and
// including) the eventList array start, populating frame and ns, and
// returns a Decoder ready for repeated Next() calls. When the root object
// is itself a bare event, frame.SingleEvent is set and that one event is
// returned by the first Next() call.
func NewDecoder(r io.Reader, ns *nsmap.Resolver, reg *contextreg.Registry) (*Decoder, error) {
	dec := json.NewDecoder(r)
	d := &Decoder{dec: dec, frame: &model.DocumentFrame{}, ns: ns, reg: reg, handler: reg.Select(nil)}
	d.frame.Format = model.FormatJSONLD

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("jsoncodec: expected a JSON object at the document root: %w", model.ErrMalformedInput)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsoncodec: reading document key: %w", err)
		}
		key, _ := keyTok.(string)

		switch key {
		case "@context":
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("jsoncodec: decoding @context: %w", err)
			}
			entries, err := decodeContext(raw)
			if err != nil {
				return nil, err
			}
			d.frame.Context = entries
			d.handler = d.reg.Select(contextURLs(entries))
			d.handler.PopulateFromContext(entries, ns)

		case "type":
			var t string
			if err := dec.Decode(&t); err != nil {
				return nil, fmt.Errorf("jsoncodec: decoding type: %w", err)
			}
			switch t {
			case "EPCISDocument":
				d.frame.Kind = model.DocumentKindCapture
			case "EPCISQueryDocument":
				d.frame.Kind = model.DocumentKindQuery
			default:
				// A bare event body: re-synthesize it from what we've
				// consumed plus the remainder of the stream.
				return d.decodeSingleEventRoot(t)
			}

		case "schemaVersion":
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("jsoncodec: decoding schemaVersion: %w", err)
			}
			if parsed, ok := model.ParseSchemaVersion(v); ok {
				d.frame.SchemaVersion = parsed
			}

		case "creationDate":
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("jsoncodec: decoding creationDate: %w", err)
			}
			if t, err := parseEventTime(v); err == nil {
				d.frame.CreationDate = t
			}

		case "subscriptionID":
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			d.frame.SubscriptionID = &v

		case "queryName":
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			d.frame.QueryName = &v

		case "epcisBody", "resultsBody":
			if err := d.scanBodyToEventList(); err != nil {
				return nil, err
			}
			return d, nil

		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("jsoncodec: skipping key %q: %w", key, err)
			}
		}
	}

	return nil, fmt.Errorf("jsoncodec: document has no epcisBody: %w", model.ErrMalformedInput)
}

// decodeSingleEventRoot handles the case where the top-level "type" field
// named an event kind rather than a document wrapper: the object being
// decoded IS the event, so the remaining keys (already past "@context" and
// "type") are decoded as that event's body.
func (d *Decoder) decodeSingleEventRoot(eventType string) (*Decoder, error) {
	ev, err := d.decodeEventRemainder(eventType)
	if err != nil {
		return nil, err
	}
	d.frame.SingleEvent = true
	d.singleEvent = ev
	d.done = false
	return d, nil
}

// scanBodyToEventList consumes the epcisBody/resultsBody object's keys up
// to and including the eventList array start token.
func (d *Decoder) scanBodyToEventList() error {
	if tok, err := d.dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("jsoncodec: expected an object for epcisBody: %w", model.ErrMalformedInput)
	}
	for d.dec.More() {
		keyTok, err := d.dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		if key == "eventList" {
			tok, err := d.dec.Token()
			if err != nil || tok != json.Delim('[') {
				return fmt.Errorf("jsoncodec: expected an array for eventList: %w", model.ErrMalformedInput)
			}
			return nil
		}
		if key == "resultsBody" {
			return d.scanBodyToEventList()
		}
		var skip json.RawMessage
		if err := d.dec.Decode(&skip); err != nil {
			return err
		}
	}
	return fmt.Errorf("jsoncodec: body has no eventList: %w", model.ErrMalformedInput)
}

// Next returns the next event in document order, or io.EOF once the event
// stream is exhausted.
func (d *Decoder) Next() (model.EventVariant, error) {
	if d.singleEvent != nil {
		ev := d.singleEvent
		d.singleEvent = nil
		d.done = true
		return ev, nil
	}
	if d.done {
		return nil, io.EOF
	}
	if !d.dec.More() {
		d.done = true
		// consume the closing ']'
		_, _ = d.dec.Token()
		return nil, io.EOF
	}

	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("jsoncodec: decoding event: %w", err)
	}
	eventType, err := unmarshalDiscriminator(raw)
	if err != nil {
		return nil, fmt.Errorf("jsoncodec: reading event type: %w", err)
	}

	ev, err := decodeEventBody(eventType, raw)
	if err != nil {
		return nil, err
	}
	d.seq++
	ev.CoreFields().SequenceNumber = d.seq
	return ev, nil
}

// decodeEventRemainder decodes the rest of *dec's current object (already
// past "@context"/"type") as eventType's body, used only for single-event
// root documents where there is no wrapping eventList array to re-Decode
// from.
func (d *Decoder) decodeEventRemainder(eventType string) (model.EventVariant, error) {
	rest := map[string]json.RawMessage{}
	for d.dec.More() {
		keyTok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := d.dec.Decode(&raw); err != nil {
			return nil, err
		}
		rest[key] = raw
	}
	// consume the closing '}'
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}

	merged, err := json.Marshal(rest)
	if err != nil {
		return nil, err
	}
	ev, err := decodeEventBody(eventType, merged)
	if err != nil {
		return nil, err
	}
	d.seq++
	ev.CoreFields().SequenceNumber = d.seq
	return ev, nil
}

func decodeEventBody(eventType string, raw json.RawMessage) (model.EventVariant, error) {
	var ev model.EventVariant
	var core model.Core
	var err error

	switch eventType {
	case "ObjectEvent":
		var w wireObjectEvent
		if err = json.Unmarshal(raw, &w); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.ObjectEvent{Core: core, EPCList: w.EPCList, Quantity: quantityToModel(w.Quantity)}
			}
		}
	case "AggregationEvent":
		var w wireAggregationEvent
		if err = json.Unmarshal(raw, &w); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.AggregationEvent{
					Core: core, ParentID: strPtr(w.ParentID), ChildEPCs: w.ChildEPCs,
					ChildQuantity: quantityToModel(w.ChildQuantity),
				}
			}
		}
	case "TransactionEvent":
		var w wireTransactionEvent
		if err = json.Unmarshal(raw, &w); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.TransactionEvent{
					Core: core, BizTransactionList: bizTxnToModel(w.BizTransactionList),
					ParentID: strPtr(w.ParentID), EPCList: w.EPCList, Quantity: quantityToModel(w.Quantity),
				}
			}
		}
	case "TransformationEvent":
		var w wireTransformationEvent
		if err = json.Unmarshal(raw, &w); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.TransformationEvent{
					Core: core, TransformationID: strPtr(w.TransformationID),
					InputEPCList: w.InputEPCList, InputQuantity: quantityToModel(w.InputQuantity),
					OutputEPCList: w.OutputEPCList, OutputQuantity: quantityToModel(w.OutputQuantity),
				}
			}
		}
	case "AssociationEvent":
		var w wireAssociationEvent
		if err = json.Unmarshal(raw, &w); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.AssociationEvent{
					Core: core, ParentID: strPtr(w.ParentID), ChildEPCs: w.ChildEPCs,
					ChildQuantity: quantityToModel(w.ChildQuantity),
				}
			}
		}
	default:
		return nil, fmt.Errorf("jsoncodec: unrecognized event type %q: %w", eventType, model.ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("jsoncodec: decoding %s: %w", eventType, err)
	}
	return ev, nil
}

// Frame returns the document envelope captured while scanning to the event
// stream.
func (d *Decoder) Frame() *model.DocumentFrame {
	return d.frame
}

// Handler returns the context handler selected for this document's
// @context, so a round-tripping caller can reuse it when re-encoding.
func (d *Decoder) Handler() contextreg.Handler {
	return d.handler
}
