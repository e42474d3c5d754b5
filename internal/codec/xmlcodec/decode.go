package xmlcodec

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

var eventElementNames = map[string]bool{
	"ObjectEvent":         true,
	"AggregationEvent":    true,
	"TransactionEvent":    true,
	"TransformationEvent": true,
	"AssociationEvent":    true,
}

// Decoder streams EPCIS events out of an XML document one at a time,
// walking tokens with encoding/xml.Decoder.Token() rather than unmarshaling
// the whole document the way tasks/epcis_extractor.go does.
type Decoder struct {
	dec         *xml.Decoder
	frame       *model.DocumentFrame
	ns          *nsmap.Resolver
	seq         uint64
	done        bool
	singleEvent model.EventVariant
}

// NewDecoder reads the document root and header content up to (but not
// including) the event stream, populating frame and ns, and returns a
// Decoder ready for repeated Next() calls. When the input's root element is
// itself a bare event, frame.SingleEvent is set and that one event is
// returned by the first Next() call.
func NewDecoder(r io.Reader, ns *nsmap.Resolver) (*Decoder, error) {
	dec := xml.NewDecoder(r)
	d := &Decoder{dec: dec, frame: &model.DocumentFrame{}, ns: ns}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xmlcodec: reading document root: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		for _, attr := range se.Attr {
			switch {
			case attr.Name.Space == "xmlns":
				ns.PopulateDocument(attr.Value, attr.Name.Local)
			case attr.Name.Local == "xmlns":
				ns.PopulateDocument(attr.Value, "")
			case attr.Name.Local == "schemaVersion":
				if v, ok := model.ParseSchemaVersion(attr.Value); ok {
					d.frame.SchemaVersion = v
				}
			case attr.Name.Local == "creationDate":
				if t, err := parseEventTime(attr.Value); err == nil {
					d.frame.CreationDate = t
				}
			}
		}
		d.frame.Format = model.FormatXML

		if eventElementNames[se.Name.Local] {
			d.frame.SingleEvent = true
			ev, err := d.decodeEventBody(se)
			if err != nil {
				return nil, err
			}
			d.singleEvent = ev
			return d, nil
		}

		d.frame.Kind = model.DocumentKindCapture
		if se.Name.Local == "EPCISQueryDocument" {
			d.frame.Kind = model.DocumentKindQuery
		}
		d.frame.Namespaces = ns.AllDocument()
		break
	}

	if err := d.scanToEventList(); err != nil {
		return nil, err
	}
	return d, nil
}

// scanToEventList consumes header/body tokens up to and including the
// EventList start tag (whatever wrapper precedes it, capture or query
// shaped), so the first Next() call lands directly on the first event
// element.
func (d *Decoder) scanToEventList() error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			if err == io.EOF {
				d.done = true
				return nil
			}
			return fmt.Errorf("xmlcodec: scanning to EventList: %w", err)
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "EventList" {
				return nil
			}
			if se.Name.Local == "QueryResults" {
				for _, attr := range se.Attr {
					switch attr.Name.Local {
					case "queryName":
						v := attr.Value
						d.frame.QueryName = &v
					case "subscriptionID":
						v := attr.Value
						d.frame.SubscriptionID = &v
					}
				}
			}
		}
	}
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

	for {
		tok, err := d.dec.Token()
		if err != nil {
			if err == io.EOF {
				d.done = true
				return nil, io.EOF
			}
			return nil, fmt.Errorf("xmlcodec: reading event stream: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if eventElementNames[t.Name.Local] {
				ev, err := d.decodeEventBody(t)
				if err != nil {
					return nil, err
				}
				return ev, nil
			}
		case xml.EndElement:
			if t.Name.Local == "EventList" {
				d.done = true
				return nil, io.EOF
			}
		}
	}
}

// decodeEventBody fully decodes the single event element se points at via
// DecodeElement, bounded to that element's subtree only; the surrounding
// document is never materialized.
func (d *Decoder) decodeEventBody(se xml.StartElement) (model.EventVariant, error) {
	var ev model.EventVariant
	var core model.Core
	var err error

	switch se.Name.Local {
	case "ObjectEvent":
		var w wireObjectEvent
		if err = d.dec.DecodeElement(&w, &se); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.ObjectEvent{Core: core, EPCList: w.EPCList, Quantity: quantityToModel(w.Quantity)}
			}
		}
	case "AggregationEvent":
		var w wireAggregationEvent
		if err = d.dec.DecodeElement(&w, &se); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.AggregationEvent{
					Core: core, ParentID: strPtr(w.ParentID), ChildEPCs: w.ChildEPCs,
					ChildQuantity: quantityToModel(w.ChildQuantity),
				}
			}
		}
	case "TransactionEvent":
		var w wireTransactionEvent
		if err = d.dec.DecodeElement(&w, &se); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.TransactionEvent{
					Core: core, BizTransactionList: bizTxnToModel(w.BizTransactionList),
					ParentID: strPtr(w.ParentID), EPCList: w.EPCList, Quantity: quantityToModel(w.Quantity),
				}
			}
		}
	case "TransformationEvent":
		var w wireTransformationEvent
		if err = d.dec.DecodeElement(&w, &se); err == nil {
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
		if err = d.dec.DecodeElement(&w, &se); err == nil {
			if core, err = wireCoreToModel(w.wireCore); err == nil {
				ev = &model.AssociationEvent{
					Core: core, ParentID: strPtr(w.ParentID), ChildEPCs: w.ChildEPCs,
					ChildQuantity: quantityToModel(w.ChildQuantity),
				}
			}
		}
	default:
		return nil, fmt.Errorf("xmlcodec: unrecognized event element %q: %w", se.Name.Local, model.ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("xmlcodec: decoding %s: %w", se.Name.Local, err)
	}

	d.seq++
	ev.CoreFields().SequenceNumber = d.seq
	return ev, nil
}

// Frame returns the document envelope captured while scanning to the event
// stream.
func (d *Decoder) Frame() *model.DocumentFrame {
	return d.frame
}
