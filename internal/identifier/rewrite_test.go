package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/model"
)

func TestRewriteEventIdentifiers_AlwaysDigitalLink(t *testing.T) {
	ev := &model.ObjectEvent{
		EPCList: []string{"urn:epc:id:sgtin:234567890.1123.9999"},
	}

	err := RewriteEventIdentifiers(ev, model.PolicyAlwaysDigitalLink, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://id.gs1.org/01/12345678901231/21/9999", ev.EPCList[0])
}

func TestRewriteEventIdentifiers_NeverTranslatesIsNoOp(t *testing.T) {
	ev := &model.ObjectEvent{
		EPCList: []string{"urn:epc:id:sgtin:234567890.1123.9999"},
	}

	err := RewriteEventIdentifiers(ev, model.PolicyNeverTranslates, 0)
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:id:sgtin:234567890.1123.9999", ev.EPCList[0])
}

func TestRewriteEventIdentifiers_AlwaysURNRequiresGCPHint(t *testing.T) {
	ev := &model.ObjectEvent{
		EPCList: []string{"https://id.gs1.org/01/12345678901231/21/9999"},
	}

	err := RewriteEventIdentifiers(ev, model.PolicyAlwaysURN, 9)
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:id:sgtin:234567890.1123.9999", ev.EPCList[0])
}

func TestRewriteCBVCodes_IndependentOfEPCPolicy(t *testing.T) {
	bizStep := "urn:epcglobal:cbv:bizstep:shipping"
	ev := &model.ObjectEvent{
		Core: model.Core{BizStep: &bizStep},
	}

	RewriteCBVCodes(ev, model.CBVAlwaysWebURI)
	assert.Equal(t, "https://ref.gs1.org/cbv/BizStep-shipping", *ev.Core.BizStep)
}

func TestRewriteCBVCodes_NeverTranslatesIsNoOp(t *testing.T) {
	bizStep := "urn:epcglobal:cbv:bizstep:shipping"
	ev := &model.ObjectEvent{
		Core: model.Core{BizStep: &bizStep},
	}

	RewriteCBVCodes(ev, model.CBVNeverTranslates)
	assert.Equal(t, "urn:epcglobal:cbv:bizstep:shipping", *ev.Core.BizStep)
}
