// Package xform implements the Schema-Version Transformer (C6): a
// byte-in/byte-out EPCIS XML rewrite between schema versions 1.2 and 2.0,
// grounded on tasks/epcis_enhancer.go's etree tree-surgery technique
// (read into an etree.Document, mutate with CreateElement/RemoveChild,
// re-serialize) generalized from "append SBDH/vocabulary" to "reconcile
// the 1.2/2.0 structural differences".
package xform

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
	"github.com/trackvision/epcis-convert/internal/model"
)

// FeatureSet controls which EPCIS 2.0-only constructs a downgrade to 1.2
// keeps. All true is lossless (used when gs1_compliant_1_2 is unset); all
// false is strict 1.2 compliance (used when it's set), per the data
// model's schema-version feature gating.
type FeatureSet struct {
	IncludeAssociationEvent      bool
	IncludePersistentDisposition bool
	IncludeSensorElementList     bool
}

// DefaultFeatureSet keeps every 2.0-only construct during a downgrade.
func DefaultFeatureSet() FeatureSet {
	return FeatureSet{IncludeAssociationEvent: true, IncludePersistentDisposition: true, IncludeSensorElementList: true}
}

// StrictFeatureSet drops every 2.0-only construct during a downgrade.
func StrictFeatureSet() FeatureSet {
	return FeatureSet{}
}

const (
	ns1_2 = "urn:epcglobal:epcis:xsd:1"
	ns2_0 = "urn:epcglobal:epcis:xsd:2"
)

var eventElementNames = map[string]bool{
	"ObjectEvent":         true,
	"AggregationEvent":    true,
	"TransactionEvent":    true,
	"TransformationEvent": true,
	"AssociationEvent":    true,
}

// Transform rewrites doc's schema-version-specific structure from `from` to
// `to`. Same-version conversions are a verbatim passthrough: byte
// identity, no parse round-trip.
func Transform(doc []byte, from, to model.SchemaVersion, features FeatureSet) ([]byte, error) {
	if from == to {
		return doc, nil
	}

	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(doc); err != nil {
		return nil, fmt.Errorf("xform: parsing document: %w", model.ErrMalformedInput)
	}
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("xform: no root element: %w", model.ErrMalformedInput)
	}

	switch {
	case from == model.SchemaVersion1_2 && to == model.SchemaVersion2_0:
		upgrade(root)
	case from == model.SchemaVersion2_0 && to == model.SchemaVersion1_2:
		downgrade(root, features)
	default:
		return nil, fmt.Errorf("xform: %s -> %s: %w", from, to, model.ErrUnsupportedConversion)
	}

	rewriteRootNamespace(root, to)

	tree.Indent(2)
	var buf bytes.Buffer
	if _, err := tree.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rewriteRootNamespace(root *etree.Element, to model.SchemaVersion) {
	if to == model.SchemaVersion1_2 {
		root.CreateAttr("xmlns:epcis", ns1_2)
		root.CreateAttr("schemaVersion", "1.2")
		return
	}
	root.CreateAttr("xmlns:epcis", ns2_0)
	root.CreateAttr("schemaVersion", "2.0")
}

// upgrade unwraps event elements a 1.2 producer smuggled inside one or more
// nested <extension> wrappers directly under EventList (1.2's schema has
// no native AssociationEvent, persistentDisposition, or sensorElementList
// slot, so producers that emit them anyway nest them under <extension>).
func upgrade(root *etree.Element) {
	eventList := findEventList(root)
	if eventList == nil {
		return
	}
	for _, child := range eventList.ChildElements() {
		if child.Tag != "extension" {
			continue
		}
		for _, ev := range collectEventsFromExtension(child) {
			eventList.AddChild(ev)
		}
		eventList.RemoveChild(child)
	}
}

// collectEventsFromExtension recursively descends nested <extension>
// wrappers to find the event elements inside, at any depth.
func collectEventsFromExtension(extension *etree.Element) []*etree.Element {
	var found []*etree.Element
	for _, child := range extension.ChildElements() {
		if eventElementNames[child.Tag] {
			found = append(found, child.Copy())
			continue
		}
		if child.Tag == "extension" {
			found = append(found, collectEventsFromExtension(child)...)
		}
	}
	return found
}

// downgrade drops whichever 2.0-only constructs features disallows,
// leaving every other element untouched.
func downgrade(root *etree.Element, features FeatureSet) {
	eventList := findEventList(root)
	if eventList == nil {
		return
	}
	for _, child := range eventList.ChildElements() {
		if child.Tag == "AssociationEvent" {
			if !features.IncludeAssociationEvent {
				eventList.RemoveChild(child)
			}
			continue
		}
		if !features.IncludePersistentDisposition {
			if pd := child.FindElement("persistentDisposition"); pd != nil {
				child.RemoveChild(pd)
			}
		}
		if !features.IncludeSensorElementList {
			if sl := child.FindElement("sensorElementList"); sl != nil {
				child.RemoveChild(sl)
			}
		}
	}
}

func findEventList(root *etree.Element) *etree.Element {
	return root.FindElement(".//EventList")
}
