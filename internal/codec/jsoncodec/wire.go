// Package jsoncodec implements the JSON-LD side of the Event Codec (C5): a
// streaming encoding/json.Decoder.Token() walk that decodes one eventList
// element at a time, generalized from the teacher's whole-document
// EPCISDocumentJSON/EPCISBodyJSON canonical-field-order struct
// (tasks/epcis_builder.go) to the full five-variant event set.
package jsoncodec

import "encoding/json"

type wireErrorDeclaration struct {
	DeclarationTime string   `json:"declarationTime"`
	Reason          string   `json:"reason,omitempty"`
	CorrectiveIDs   []string `json:"correctiveEventIDs,omitempty"`
}

type wireSensorReport struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value,omitempty"`
	UOM   *string  `json:"uom,omitempty"`
}

type wireSensorElement struct {
	SensorReport []wireSensorReport `json:"sensorReport,omitempty"`
}

type wirePersistentDisposition struct {
	Set   []string `json:"set,omitempty"`
	Unset []string `json:"unset,omitempty"`
}

type wireQuantityElement struct {
	EPCClass string  `json:"epcClass"`
	Quantity float64 `json:"quantity"`
	UOM      *string `json:"uom,omitempty"`
}

type wireBizTransaction struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"bizTransaction"`
}

// wireCore carries the JSON-LD field set every event variant shares, in
// the canonical order those fields serialize in: Type leads (decode.go
// reads "type" separately via discriminator to pick the variant, but the
// field is declared here too so encoding gets it first, ahead of eventTime
// and everything after it).
type wireCore struct {
	Type                  string                     `json:"type,omitempty"`
	EventTime             string                     `json:"eventTime"`
	EventTimeZoneOffset   string                     `json:"eventTimeZoneOffset"`
	RecordTime            string                     `json:"recordTime,omitempty"`
	EventID               string                     `json:"eventID,omitempty"`
	ErrorDeclaration      *wireErrorDeclaration      `json:"errorDeclaration,omitempty"`
	Action                string                     `json:"action,omitempty"`
	BizStep               string                     `json:"bizStep,omitempty"`
	Disposition           string                     `json:"disposition,omitempty"`
	ReadPoint             *wireID                    `json:"readPoint,omitempty"`
	BizLocation           *wireID                    `json:"bizLocation,omitempty"`
	SourceList            []json.RawMessage          `json:"sourceList,omitempty"`
	DestinationList       []json.RawMessage          `json:"destinationList,omitempty"`
	SensorElementList     []wireSensorElement        `json:"sensorElementList,omitempty"`
	PersistentDisposition *wirePersistentDisposition `json:"persistentDisposition,omitempty"`
}

type wireID struct {
	ID string `json:"id"`
}

// wireSourceDest represents one sourceList/destinationList entry. The value
// key is "source" or "destination" depending on which list it appears in,
// so it round-trips through a plain map rather than a fixed struct tag.
type wireSourceDest struct {
	Type  string
	Value string
}

func (s wireSourceDest) marshalAs(key string) ([]byte, error) {
	return json.Marshal(map[string]string{"type": s.Type, key: s.Value})
}

func unmarshalSourceDest(raw json.RawMessage, key string) (wireSourceDest, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return wireSourceDest{}, err
	}
	return wireSourceDest{Type: m["type"], Value: m[key]}, nil
}

type wireObjectEvent struct {
	wireCore
	EPCList  []string              `json:"epcList,omitempty"`
	Quantity []wireQuantityElement `json:"quantityList,omitempty"`
}

type wireAggregationEvent struct {
	wireCore
	ParentID      string                `json:"parentID,omitempty"`
	ChildEPCs     []string              `json:"childEPCs,omitempty"`
	ChildQuantity []wireQuantityElement `json:"childQuantityList,omitempty"`
}

type wireTransactionEvent struct {
	wireCore
	BizTransactionList []wireBizTransaction  `json:"bizTransactionList,omitempty"`
	ParentID           string                `json:"parentID,omitempty"`
	EPCList            []string              `json:"epcList,omitempty"`
	Quantity           []wireQuantityElement `json:"quantityList,omitempty"`
}

type wireTransformationEvent struct {
	wireCore
	TransformationID string                `json:"transformationID,omitempty"`
	InputEPCList     []string              `json:"inputEPCList,omitempty"`
	InputQuantity    []wireQuantityElement `json:"inputQuantityList,omitempty"`
	OutputEPCList    []string              `json:"outputEPCList,omitempty"`
	OutputQuantity   []wireQuantityElement `json:"outputQuantityList,omitempty"`
}

type wireAssociationEvent struct {
	wireCore
	ParentID      string                `json:"parentID,omitempty"`
	ChildEPCs     []string              `json:"childEPCs,omitempty"`
	ChildQuantity []wireQuantityElement `json:"childQuantityList,omitempty"`
}

// discriminator reads only the "type" field, used to pick which wire*Event
// to unmarshal a raw event into.
type discriminator struct {
	Type string `json:"type"`
}

func unmarshalDiscriminator(raw json.RawMessage) (string, error) {
	var d discriminator
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", err
	}
	return d.Type, nil
}
