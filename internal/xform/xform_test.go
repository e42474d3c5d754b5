package xform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/model"
)

const doc12WithNestedAssociation = `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:1" schemaVersion="1.2">
  <EPCISBody>
    <EventList>
      <ObjectEvent><eventTime>2026-01-15T09:00:00Z</eventTime></ObjectEvent>
      <extension>
        <extension>
          <AssociationEvent><eventTime>2026-01-15T09:05:00Z</eventTime></AssociationEvent>
        </extension>
      </extension>
    </EventList>
  </EPCISBody>
</epcis:EPCISDocument>`

func TestTransformUpgradeUnwrapsNestedAssociationEvent(t *testing.T) {
	out, err := Transform([]byte(doc12WithNestedAssociation), model.SchemaVersion1_2, model.SchemaVersion2_0, DefaultFeatureSet())
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `schemaVersion="2.0"`)
	assert.Contains(t, s, "urn:epcglobal:epcis:xsd:2")
	assert.Contains(t, s, "<AssociationEvent>")
	assert.NotContains(t, s, "<extension>")
}

const doc20WithAssociationAndSensor = `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0">
  <EPCISBody>
    <EventList>
      <ObjectEvent>
        <eventTime>2026-01-15T09:00:00Z</eventTime>
        <sensorElementList><sensorElement/></sensorElementList>
      </ObjectEvent>
      <AssociationEvent><eventTime>2026-01-15T09:05:00Z</eventTime></AssociationEvent>
    </EventList>
  </EPCISBody>
</epcis:EPCISDocument>`

func TestTransformDowngradeStrictDropsTwoPointZeroOnlyConstructs(t *testing.T) {
	out, err := Transform([]byte(doc20WithAssociationAndSensor), model.SchemaVersion2_0, model.SchemaVersion1_2, StrictFeatureSet())
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `schemaVersion="1.2"`)
	assert.NotContains(t, s, "AssociationEvent")
	assert.NotContains(t, s, "sensorElementList")
	assert.Contains(t, s, "<ObjectEvent>")
}

func TestTransformDowngradeLosslessKeepsTwoPointZeroOnlyConstructs(t *testing.T) {
	out, err := Transform([]byte(doc20WithAssociationAndSensor), model.SchemaVersion2_0, model.SchemaVersion1_2, DefaultFeatureSet())
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<AssociationEvent>")
	assert.Contains(t, s, "sensorElementList")
}

func TestTransformSameVersionIsVerbatimPassthrough(t *testing.T) {
	input := []byte(doc20WithAssociationAndSensor)
	out, err := Transform(input, model.SchemaVersion2_0, model.SchemaVersion2_0, DefaultFeatureSet())
	require.NoError(t, err)
	assert.Same(t, &input[0], &out[0])
}

func TestTransformUnsupportedConversion(t *testing.T) {
	_, err := Transform([]byte(doc20WithAssociationAndSensor), model.SchemaVersionUnknown, model.SchemaVersion1_2, DefaultFeatureSet())
	assert.ErrorIs(t, err, model.ErrUnsupportedConversion)
}
