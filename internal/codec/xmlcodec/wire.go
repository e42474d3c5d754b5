// Package xmlcodec implements the XML side of the Event Codec (C5): a
// streaming xml.Decoder.Token() walk that never materializes the whole
// document, and an etree-driven writer for the reverse direction.
//
// Wire structs mirror the teacher's epcis_extractor.go struct-tag style
// (xml.Name/attr/chardata tags), generalized from ObjectEvent/
// AggregationEvent only to all five event variants.
package xmlcodec

import "encoding/xml"

type wireErrorDeclaration struct {
	DeclarationTime string   `xml:"declarationTime"`
	Reason          string   `xml:"reason,omitempty"`
	CorrectiveIDs   []string `xml:"correctiveEventIDs>correctiveEventID,omitempty"`
}

type wireSourceDest struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type wireSensorReport struct {
	Type  string  `xml:"type,attr"`
	Value *string `xml:"value,attr"`
	UOM   *string `xml:"uom,attr"`
}

type wireSensorElement struct {
	SensorReport []wireSensorReport `xml:"sensorReport"`
}

type wirePersistentDisposition struct {
	Set   []string `xml:"set"`
	Unset []string `xml:"unset"`
}

type wireQuantityElement struct {
	EPCClass string  `xml:"epcClass"`
	Quantity float64 `xml:"quantity"`
	UOM      *string `xml:"uom"`
}

// wireCore holds the common element set every variant shares, embedded by
// value into each wire event struct below.
type wireCore struct {
	EventTime              string                     `xml:"eventTime"`
	EventTimeZoneOffset    string                     `xml:"eventTimeZoneOffset"`
	RecordTime             string                     `xml:"recordTime,omitempty"`
	EventID                string                     `xml:"eventID,omitempty"`
	ErrorDeclaration       *wireErrorDeclaration      `xml:"errorDeclaration"`
	Action                 string                     `xml:"action,omitempty"`
	BizStep                string                     `xml:"bizStep,omitempty"`
	Disposition            string                     `xml:"disposition,omitempty"`
	ReadPoint              *wireID                    `xml:"readPoint"`
	BizLocation            *wireID                    `xml:"bizLocation"`
	SourceList             []wireSourceDest           `xml:"sourceList>source,omitempty"`
	DestinationList        []wireSourceDest           `xml:"destinationList>destination,omitempty"`
	SensorElementList      []wireSensorElement        `xml:"sensorElementList>sensorElement,omitempty"`
	PersistentDisposition  *wirePersistentDisposition `xml:"persistentDisposition"`
}

type wireID struct {
	ID string `xml:"id"`
}

type wireObjectEvent struct {
	XMLName  xml.Name `xml:"ObjectEvent"`
	wireCore
	EPCList  []string              `xml:"epcList>epc,omitempty"`
	Quantity []wireQuantityElement `xml:"quantityList>quantityElement,omitempty"`
}

type wireAggregationEvent struct {
	XMLName       xml.Name              `xml:"AggregationEvent"`
	wireCore
	ParentID      string                `xml:"parentID,omitempty"`
	ChildEPCs     []string              `xml:"childEPCs>epc,omitempty"`
	ChildQuantity []wireQuantityElement `xml:"childQuantityList>quantityElement,omitempty"`
}

type wireBizTransaction struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type wireTransactionEvent struct {
	XMLName            xml.Name              `xml:"TransactionEvent"`
	wireCore
	BizTransactionList []wireBizTransaction  `xml:"bizTransactionList>bizTransaction,omitempty"`
	ParentID           string                `xml:"parentID,omitempty"`
	EPCList            []string              `xml:"epcList>epc,omitempty"`
	Quantity           []wireQuantityElement `xml:"quantityList>quantityElement,omitempty"`
}

type wireTransformationEvent struct {
	XMLName          xml.Name              `xml:"TransformationEvent"`
	wireCore
	TransformationID string                `xml:"transformationID,omitempty"`
	InputEPCList     []string              `xml:"inputEPCList>epc,omitempty"`
	InputQuantity    []wireQuantityElement `xml:"inputQuantityList>quantityElement,omitempty"`
	OutputEPCList    []string              `xml:"outputEPCList>epc,omitempty"`
	OutputQuantity   []wireQuantityElement `xml:"outputQuantityList>quantityElement,omitempty"`
}

type wireAssociationEvent struct {
	XMLName       xml.Name              `xml:"AssociationEvent"`
	wireCore
	ParentID      string                `xml:"parentID,omitempty"`
	ChildEPCs     []string              `xml:"childEPCs>epc,omitempty"`
	ChildQuantity []wireQuantityElement `xml:"childQuantityList>quantityElement,omitempty"`
}
