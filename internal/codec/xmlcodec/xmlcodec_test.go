package xmlcodec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:1" schemaVersion="1.2" creationDate="2026-01-15T10:00:00Z">
  <EPCISBody>
    <EventList>
      <ObjectEvent>
        <eventTime>2026-01-15T09:00:00Z</eventTime>
        <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
        <epcList>
          <epc>urn:epc:id:sgtin:234567890.1123.9999</epc>
        </epcList>
        <action>OBSERVE</action>
        <bizStep>urn:epcglobal:cbv:bizstep:shipping</bizStep>
        <readPoint><id>urn:epc:id:sgln:030001.111111.0</id></readPoint>
      </ObjectEvent>
      <AggregationEvent>
        <eventTime>2026-01-15T09:05:00Z</eventTime>
        <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
        <parentID>urn:epc:id:sscc:030001.0000000001</parentID>
        <childEPCs>
          <epc>urn:epc:id:sgtin:234567890.1123.9999</epc>
        </childEPCs>
        <action>ADD</action>
      </AggregationEvent>
    </EventList>
  </EPCISBody>
</epcis:EPCISDocument>`

func TestDecodeStreamsEventsInOrder(t *testing.T) {
	ns := nsmap.NewResolver()
	dec, err := NewDecoder(strings.NewReader(sampleDoc), ns)
	require.NoError(t, err)

	frame := dec.Frame()
	assert.Equal(t, model.SchemaVersion1_2, frame.SchemaVersion)
	assert.False(t, frame.SingleEvent)

	ev1, err := dec.Next()
	require.NoError(t, err)
	obj, ok := ev1.(*model.ObjectEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(1), obj.CoreFields().SequenceNumber)
	assert.Equal(t, []string{"urn:epc:id:sgtin:234567890.1123.9999"}, obj.EPCList)
	assert.Equal(t, "urn:epc:id:sgln:030001.111111.0", *obj.ReadPoint)

	ev2, err := dec.Next()
	require.NoError(t, err)
	agg, ok := ev2.(*model.AggregationEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(2), agg.CoreFields().SequenceNumber)
	assert.Equal(t, "urn:epc:id:sscc:030001.0000000001", *agg.ParentID)

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeSingleEventRoot(t *testing.T) {
	const single = `<ObjectEvent>
  <eventTime>2026-01-15T09:00:00Z</eventTime>
  <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
  <action>OBSERVE</action>
</ObjectEvent>`

	ns := nsmap.NewResolver()
	dec, err := NewDecoder(strings.NewReader(single), ns)
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
	frame := &model.DocumentFrame{
		FrameAttrs: model.FrameAttrs{
			Kind:          model.DocumentKindCapture,
			SchemaVersion: model.SchemaVersion2_0,
			Format:        model.FormatXML,
		},
	}
	enc := NewEncoder(frame, ns)

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

	var buf bytes.Buffer
	require.NoError(t, enc.Close(&buf))

	ns2 := nsmap.NewResolver()
	dec, err := NewDecoder(&buf, ns2)
	require.NoError(t, err)

	got, err := dec.Next()
	require.NoError(t, err)
	obj, ok := got.(*model.ObjectEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"urn:epc:id:sgtin:234567890.1123.9999"}, obj.EPCList)
	assert.Equal(t, "urn:epcglobal:cbv:bizstep:shipping", *obj.BizStep)
	assert.Equal(t, model.ActionObserve, *obj.Action)
}

func TestEncodeAssociationEventRejectedFor1_2(t *testing.T) {
	ns := nsmap.NewResolver()
	frame := &model.DocumentFrame{
		FrameAttrs: model.FrameAttrs{SchemaVersion: model.SchemaVersion1_2, Format: model.FormatXML},
	}
	enc := NewEncoder(frame, ns)

	err := enc.Write(&model.AssociationEvent{})
	assert.ErrorIs(t, err, model.ErrUnsupportedConversion)
}
