package jsoncodec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/contextreg"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

const sampleDoc = `{
  "@context": "https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld",
  "type": "EPCISDocument",
  "schemaVersion": "2.0",
  "creationDate": "2026-01-15T10:00:00Z",
  "epcisBody": {
    "eventList": [
      {
        "type": "ObjectEvent",
        "eventTime": "2026-01-15T09:00:00Z",
        "eventTimeZoneOffset": "+00:00",
        "epcList": ["urn:epc:id:sgtin:234567890.1123.9999"],
        "action": "OBSERVE",
        "bizStep": "urn:epcglobal:cbv:bizstep:shipping"
      },
      {
        "type": "AssociationEvent",
        "eventTime": "2026-01-15T09:05:00Z",
        "eventTimeZoneOffset": "+00:00",
        "parentID": "urn:epc:id:grai:0614141.12345.400",
        "childEPCs": ["urn:epc:id:sgtin:234567890.1123.9999"],
        "action": "ADD"
      }
    ]
  }
}`

func TestDecodeStreamsEventsInOrder(t *testing.T) {
	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()
	dec, err := NewDecoder(strings.NewReader(sampleDoc), ns, reg)
	require.NoError(t, err)

	frame := dec.Frame()
	assert.Equal(t, model.SchemaVersion2_0, frame.SchemaVersion)
	assert.False(t, frame.SingleEvent)

	ev1, err := dec.Next()
	require.NoError(t, err)
	obj, ok := ev1.(*model.ObjectEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1), obj.CoreFields().SequenceNumber)
	assert.Equal(t, []string{"urn:epc:id:sgtin:234567890.1123.9999"}, obj.EPCList)

	ev2, err := dec.Next()
	require.NoError(t, err)
	assoc, ok := ev2.(*model.AssociationEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(2), assoc.CoreFields().SequenceNumber)
	assert.Equal(t, "urn:epc:id:grai:0614141.12345.400", *assoc.ParentID)

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeSingleEventRoot(t *testing.T) {
	const single = `{
    "type": "ObjectEvent",
    "eventTime": "2026-01-15T09:00:00Z",
    "eventTimeZoneOffset": "+00:00",
    "action": "OBSERVE"
  }`

	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()
	dec, err := NewDecoder(strings.NewReader(single), ns, reg)
	require.NoError(t, err)
	assert.True(t, dec.Frame().SingleEvent)

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, model.EventKindObject, ev.Kind())

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEncodeThenDecodeRoundTripsEventFields(t *testing.T) {
	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()
	handler := reg.Select(nil)
	frame := &model.DocumentFrame{
		FrameAttrs: model.FrameAttrs{
			Kind:          model.DocumentKindCapture,
			SchemaVersion: model.SchemaVersion2_0,
			Format:        model.FormatJSONLD,
		},
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf, frame, ns, handler)

	action := model.ActionObserve
	bizStep := "urn:epcglobal:cbv:bizstep:shipping"
	ev := &model.ObjectEvent{
		Core: model.Core{
			EventTimeZoneOffset: "+00:00",
			Action:              &action,
			BizStep:             &bizStep,
		},
		EPCList: []string{"urn:epc:id:sgtin:234567890.1123.9999"},
	}
	require.NoError(t, enc.Write(ev))
	require.NoError(t, enc.Close())

	ns2 := nsmap.NewResolver()
	dec, err := NewDecoder(&buf, ns2, reg)
	require.NoError(t, err)

	got, err := dec.Next()
	require.NoError(t, err)
	obj, ok := got.(*model.ObjectEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"urn:epc:id:sgtin:234567890.1123.9999"}, obj.EPCList)
	assert.Equal(t, "urn:epcglobal:cbv:bizstep:shipping", *obj.BizStep)
	assert.Equal(t, model.ActionObserve, *obj.Action)
}

func TestEncodeFieldOrderIsCanonicalNotAlphabetical(t *testing.T) {
	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()
	handler := reg.Select(nil)
	frame := &model.DocumentFrame{
		FrameAttrs: model.FrameAttrs{
			Kind:          model.DocumentKindCapture,
			SchemaVersion: model.SchemaVersion2_0,
			Format:        model.FormatJSONLD,
		},
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf, frame, ns, handler)

	action := model.ActionObserve
	bizStep := "urn:epcglobal:cbv:bizstep:shipping"
	ev := &model.ObjectEvent{
		Core: model.Core{
			EventTimeZoneOffset: "+00:00",
			Action:              &action,
			BizStep:             &bizStep,
		},
		EPCList: []string{"urn:epc:id:sgtin:234567890.1123.9999"},
	}
	require.NoError(t, enc.Write(ev))
	require.NoError(t, enc.Close())

	out := buf.String()

	// Header: @context, type, schemaVersion, creationDate — never
	// alphabetical (which would put creationDate before schemaVersion
	// and type).
	headIdx := map[string]int{
		"@context":      strings.Index(out, `"@context"`),
		"type":          strings.Index(out, `"type":"EPCISDocument"`),
		"schemaVersion": strings.Index(out, `"schemaVersion"`),
		"creationDate":  strings.Index(out, `"creationDate"`),
	}
	require.Greater(t, headIdx["type"], headIdx["@context"])
	require.Greater(t, headIdx["schemaVersion"], headIdx["type"])
	require.Greater(t, headIdx["creationDate"], headIdx["schemaVersion"])

	// Event: type leads, ahead of eventTime/action/bizStep — alphabetical
	// order would put action and bizStep before eventTime and type.
	eventIdx := map[string]int{
		"type":      strings.Index(out, `"type":"ObjectEvent"`),
		"eventTime": strings.Index(out, `"eventTime"`),
		"action":    strings.Index(out, `"action"`),
		"bizStep":   strings.Index(out, `"bizStep"`),
	}
	require.Greater(t, eventIdx["eventTime"], eventIdx["type"])
	require.Greater(t, eventIdx["action"], eventIdx["eventTime"])
	require.Greater(t, eventIdx["bizStep"], eventIdx["action"])
}

func TestEncodeAssociationEventRejectedFor1_2(t *testing.T) {
	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()
	frame := &model.DocumentFrame{
		FrameAttrs: model.FrameAttrs{SchemaVersion: model.SchemaVersion1_2, Format: model.FormatJSONLD},
	}
	var buf bytes.Buffer
	enc := NewEncoder(&buf, frame, ns, reg.Select(nil))

	err := enc.Write(&model.AssociationEvent{})
	assert.ErrorIs(t, err, model.ErrUnsupportedConversion)
}

func TestDecodeContextArrayWithNamespaceBindings(t *testing.T) {
	const doc = `{
    "@context": ["https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld", {"ext": "https://example.com/ext#"}],
    "type": "EPCISDocument",
    "schemaVersion": "2.0",
    "creationDate": "2026-01-15T10:00:00Z",
    "epcisBody": {"eventList": []}
  }`
	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()
	dec, err := NewDecoder(strings.NewReader(doc), ns, reg)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ext#", ns.AllDocument()["ext"])

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}
