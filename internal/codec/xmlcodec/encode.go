package xmlcodec

import (
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

// Encoder builds an EPCIS XML document with github.com/beevik/etree, the
// same tree-construction library the teacher uses for document enhancement,
// generalized from "append a fixed set of header elements" to "render an
// arbitrary event stream under the appropriate root for the target schema
// version".
type Encoder struct {
	doc       *etree.Document
	root      *etree.Element
	eventList *etree.Element
	ns        *nsmap.Resolver
	version   model.SchemaVersion
}

func rootNamespaceURI(v model.SchemaVersion) string {
	if v == model.SchemaVersion1_2 {
		return "urn:epcglobal:epcis:xsd:1"
	}
	return "urn:epcglobal:epcis:xsd:2"
}

// NewEncoder builds the document root and header shell (EPCISDocument or
// EPCISQueryDocument) per frame, ready to accept events via Write.
func NewEncoder(frame *model.DocumentFrame, ns *nsmap.Resolver) *Encoder {
	doc := etree.NewDocument()

	rootName := "epcis:EPCISDocument"
	if frame.Kind == model.DocumentKindQuery {
		rootName = "epcis:EPCISQueryDocument"
	}
	root := doc.CreateElement(rootName)
	root.CreateAttr("xmlns:epcis", rootNamespaceURI(frame.SchemaVersion))
	root.CreateAttr("schemaVersion", schemaVersionAttr(frame.SchemaVersion))
	root.CreateAttr("creationDate", formatEventTime(frame.CreationDate, ""))

	for prefix, uri := range frame.Namespaces {
		if prefix == "" || prefix == "epcis" {
			continue
		}
		root.CreateAttr("xmlns:"+prefix, uri)
	}

	body := root.CreateElement("epcis:EPCISBody")
	container := body
	if frame.Kind == model.DocumentKindQuery {
		results := body.CreateElement("QueryResults")
		if frame.QueryName != nil {
			results.CreateAttr("queryName", *frame.QueryName)
		}
		if frame.SubscriptionID != nil {
			results.CreateAttr("subscriptionID", *frame.SubscriptionID)
		}
		container = results.CreateElement("resultsBody")
	}
	eventList := container.CreateElement("EventList")

	return &Encoder{doc: doc, root: root, eventList: eventList, ns: ns, version: frame.SchemaVersion}
}

func schemaVersionAttr(v model.SchemaVersion) string {
	if v == model.SchemaVersion1_2 {
		return "1.2"
	}
	return "2.0"
}

// Write appends one event to the document's EventList.
func (e *Encoder) Write(ev model.EventVariant) error {
	var elemName string
	var tag func() (*etree.Element, error)

	switch v := ev.(type) {
	case *model.ObjectEvent:
		elemName = "ObjectEvent"
		tag = func() (*etree.Element, error) {
			el := e.eventList.CreateElement(elemName)
			writeCore(el, modelCoreToWire(v.Core), e.ns)
			writeEPCList(el, "epcList", v.EPCList)
			writeQuantityList(el, "quantityList", v.Quantity)
			return el, nil
		}
	case *model.AggregationEvent:
		elemName = "AggregationEvent"
		tag = func() (*etree.Element, error) {
			el := e.eventList.CreateElement(elemName)
			writeCore(el, modelCoreToWire(v.Core), e.ns)
			if v.ParentID != nil {
				el.CreateElement("parentID").SetText(*v.ParentID)
			}
			writeEPCList(el, "childEPCs", v.ChildEPCs)
			writeQuantityList(el, "childQuantityList", v.ChildQuantity)
			return el, nil
		}
	case *model.TransactionEvent:
		elemName = "TransactionEvent"
		tag = func() (*etree.Element, error) {
			el := e.eventList.CreateElement(elemName)
			writeCore(el, modelCoreToWire(v.Core), e.ns)
			if len(v.BizTransactionList) > 0 {
				list := el.CreateElement("bizTransactionList")
				for _, bt := range bizTxnToWire(v.BizTransactionList) {
					txn := list.CreateElement("bizTransaction")
					if bt.Type != "" {
						txn.CreateAttr("type", bt.Type)
					}
					txn.SetText(bt.Value)
				}
			}
			if v.ParentID != nil {
				el.CreateElement("parentID").SetText(*v.ParentID)
			}
			writeEPCList(el, "epcList", v.EPCList)
			writeQuantityList(el, "quantityList", v.Quantity)
			return el, nil
		}
	case *model.TransformationEvent:
		elemName = "TransformationEvent"
		tag = func() (*etree.Element, error) {
			el := e.eventList.CreateElement(elemName)
			writeCore(el, modelCoreToWire(v.Core), e.ns)
			if v.TransformationID != nil {
				el.CreateElement("transformationID").SetText(*v.TransformationID)
			}
			writeEPCList(el, "inputEPCList", v.InputEPCList)
			writeQuantityList(el, "inputQuantityList", v.InputQuantity)
			writeEPCList(el, "outputEPCList", v.OutputEPCList)
			writeQuantityList(el, "outputQuantityList", v.OutputQuantity)
			return el, nil
		}
	case *model.AssociationEvent:
		if e.version == model.SchemaVersion1_2 {
			return fmt.Errorf("xmlcodec: AssociationEvent has no 1.2 representation: %w", model.ErrUnsupportedConversion)
		}
		elemName = "AssociationEvent"
		tag = func() (*etree.Element, error) {
			el := e.eventList.CreateElement(elemName)
			writeCore(el, modelCoreToWire(v.Core), e.ns)
			if v.ParentID != nil {
				el.CreateElement("parentID").SetText(*v.ParentID)
			}
			writeEPCList(el, "childEPCs", v.ChildEPCs)
			writeQuantityList(el, "childQuantityList", v.ChildQuantity)
			return el, nil
		}
	default:
		return fmt.Errorf("xmlcodec: unsupported event variant %T: %w", ev, model.ErrMalformedInput)
	}

	_, err := tag()
	e.ns.ResetEvent()
	return err
}

func writeCore(el *etree.Element, w wireCore, ns *nsmap.Resolver) {
	el.CreateElement("eventTime").SetText(w.EventTime)
	el.CreateElement("eventTimeZoneOffset").SetText(w.EventTimeZoneOffset)
	if w.RecordTime != "" {
		el.CreateElement("recordTime").SetText(w.RecordTime)
	}
	if w.ErrorDeclaration != nil {
		errEl := el.CreateElement("errorDeclaration")
		errEl.CreateElement("declarationTime").SetText(w.ErrorDeclaration.DeclarationTime)
		if w.ErrorDeclaration.Reason != "" {
			errEl.CreateElement("reason").SetText(w.ErrorDeclaration.Reason)
		}
		if len(w.ErrorDeclaration.CorrectiveIDs) > 0 {
			list := errEl.CreateElement("correctiveEventIDs")
			for _, id := range w.ErrorDeclaration.CorrectiveIDs {
				list.CreateElement("correctiveEventID").SetText(id)
			}
		}
	}
	if w.Action != "" {
		el.CreateElement("action").SetText(w.Action)
	}
	if w.BizStep != "" {
		el.CreateElement("bizStep").SetText(w.BizStep)
	}
	if w.Disposition != "" {
		el.CreateElement("disposition").SetText(w.Disposition)
	}
	if w.ReadPoint != nil {
		el.CreateElement("readPoint").CreateElement("id").SetText(w.ReadPoint.ID)
	}
	if w.BizLocation != nil {
		el.CreateElement("bizLocation").CreateElement("id").SetText(w.BizLocation.ID)
	}
	if len(w.SourceList) > 0 {
		list := el.CreateElement("sourceList")
		for _, s := range w.SourceList {
			src := list.CreateElement("source")
			src.CreateAttr("type", s.Type)
			src.SetText(s.Value)
		}
	}
	if len(w.DestinationList) > 0 {
		list := el.CreateElement("destinationList")
		for _, d := range w.DestinationList {
			dst := list.CreateElement("destination")
			dst.CreateAttr("type", d.Type)
			dst.SetText(d.Value)
		}
	}
	if len(w.SensorElementList) > 0 {
		list := el.CreateElement("sensorElementList")
		for _, se := range w.SensorElementList {
			seEl := list.CreateElement("sensorElement")
			for _, r := range se.SensorReport {
				rep := seEl.CreateElement("sensorReport")
				rep.CreateAttr("type", r.Type)
				if r.Value != nil {
					rep.CreateAttr("value", *r.Value)
				}
				if r.UOM != nil {
					rep.CreateAttr("uom", *r.UOM)
				}
			}
		}
	}
	if w.PersistentDisposition != nil {
		pd := el.CreateElement("persistentDisposition")
		for _, s := range w.PersistentDisposition.Set {
			pd.CreateElement("set").SetText(s)
		}
		for _, u := range w.PersistentDisposition.Unset {
			pd.CreateElement("unset").SetText(u)
		}
	}

	for prefix, uri := range ns.EmittableEvent() {
		el.CreateAttr("xmlns:"+prefix, uri)
	}
}

func writeEPCList(el *etree.Element, name string, epcs []string) {
	if len(epcs) == 0 {
		return
	}
	list := el.CreateElement(name)
	for _, epc := range epcs {
		list.CreateElement("epc").SetText(epc)
	}
}

func writeQuantityList(el *etree.Element, name string, qs []model.QuantityElement) {
	if len(qs) == 0 {
		return
	}
	list := el.CreateElement(name)
	for _, q := range quantityToWire(qs) {
		qe := list.CreateElement("quantityElement")
		qe.CreateElement("epcClass").SetText(q.EPCClass)
		qe.CreateElement("quantity").SetText(strconv.FormatFloat(q.Quantity, 'g', -1, 64))
		if q.UOM != nil {
			qe.CreateElement("uom").SetText(*q.UOM)
		}
	}
}

// Close finalizes indentation and writes the complete document to w.
func (e *Encoder) Close(w io.Writer) error {
	e.doc.Indent(2)
	_, err := e.doc.WriteTo(w)
	return err
}
