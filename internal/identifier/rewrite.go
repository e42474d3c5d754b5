package identifier

import (
	"github.com/trackvision/epcis-convert/internal/model"
)

// rewriteValue applies policy to a single EPC identifier value, returning
// it unchanged on PolicyNoPreference/PolicyNeverTranslates or when the
// value isn't itself a transcodable identifier (e.g. already a bare
// string the caller doesn't want touched).
func rewriteValue(value string, policy model.RewritePolicy, gcpHint int) (string, error) {
	switch policy {
	case model.PolicyNoPreference, model.PolicyNeverTranslates:
		return value, nil
	case model.PolicyAlwaysURN:
		if isWebURI(value) {
			result, err := ToURN(value, gcpHint)
			if err != nil {
				return "", err
			}
			return result.AsURN, nil
		}
		return value, nil
	case model.PolicyAlwaysDigitalLink:
		if isURN(value) {
			return ToWebURI(value)
		}
		return value, nil
	default:
		return value, nil
	}
}

func isURN(v string) bool {
	return len(v) > 8 && v[:8] == "urn:epc:"
}

func isWebURI(v string) bool {
	return len(v) > 8 && (v[:8] == "https://" || v[:7] == "http://")
}

// RewriteEventIdentifiers walks every EPC identifier field on ev and
// rewrites it per policy: epcList, childEPCs, parentID, readPoint,
// bizLocation, source/destination values, quantityList.epcClass.
func RewriteEventIdentifiers(ev model.EventVariant, policy model.RewritePolicy, gcpHint int) error {
	if policy == model.PolicyNoPreference || policy == model.PolicyNeverTranslates {
		return nil
	}

	core := ev.CoreFields()
	if core.ReadPoint != nil {
		if v, err := rewriteValue(*core.ReadPoint, policy, gcpHint); err != nil {
			return err
		} else {
			core.ReadPoint = &v
		}
	}
	if core.BizLocation != nil {
		if v, err := rewriteValue(*core.BizLocation, policy, gcpHint); err != nil {
			return err
		} else {
			core.BizLocation = &v
		}
	}
	for i := range core.SourceList {
		v, err := rewriteValue(core.SourceList[i].Value, policy, gcpHint)
		if err != nil {
			return err
		}
		core.SourceList[i].Value = v
	}
	for i := range core.DestinationList {
		v, err := rewriteValue(core.DestinationList[i].Value, policy, gcpHint)
		if err != nil {
			return err
		}
		core.DestinationList[i].Value = v
	}

	switch e := ev.(type) {
	case *model.ObjectEvent:
		if err := rewriteSlice(e.EPCList, policy, gcpHint); err != nil {
			return err
		}
		return rewriteQuantityList(e.Quantity, policy, gcpHint)
	case *model.AggregationEvent:
		if e.ParentID != nil {
			v, err := rewriteValue(*e.ParentID, policy, gcpHint)
			if err != nil {
				return err
			}
			e.ParentID = &v
		}
		if err := rewriteSlice(e.ChildEPCs, policy, gcpHint); err != nil {
			return err
		}
		return rewriteQuantityList(e.ChildQuantity, policy, gcpHint)
	case *model.TransactionEvent:
		if e.ParentID != nil {
			v, err := rewriteValue(*e.ParentID, policy, gcpHint)
			if err != nil {
				return err
			}
			e.ParentID = &v
		}
		if err := rewriteSlice(e.EPCList, policy, gcpHint); err != nil {
			return err
		}
		return rewriteQuantityList(e.Quantity, policy, gcpHint)
	case *model.TransformationEvent:
		if err := rewriteSlice(e.InputEPCList, policy, gcpHint); err != nil {
			return err
		}
		if err := rewriteSlice(e.OutputEPCList, policy, gcpHint); err != nil {
			return err
		}
		if err := rewriteQuantityList(e.InputQuantity, policy, gcpHint); err != nil {
			return err
		}
		return rewriteQuantityList(e.OutputQuantity, policy, gcpHint)
	case *model.AssociationEvent:
		if e.ParentID != nil {
			v, err := rewriteValue(*e.ParentID, policy, gcpHint)
			if err != nil {
				return err
			}
			e.ParentID = &v
		}
		if err := rewriteSlice(e.ChildEPCs, policy, gcpHint); err != nil {
			return err
		}
		return rewriteQuantityList(e.ChildQuantity, policy, gcpHint)
	}
	return nil
}

func rewriteSlice(epcs []string, policy model.RewritePolicy, gcpHint int) error {
	for i := range epcs {
		v, err := rewriteValue(epcs[i], policy, gcpHint)
		if err != nil {
			return err
		}
		epcs[i] = v
	}
	return nil
}

func rewriteQuantityList(qs []model.QuantityElement, policy model.RewritePolicy, gcpHint int) error {
	for i := range qs {
		v, err := rewriteValue(qs[i].EPCClass, policy, gcpHint)
		if err != nil {
			return err
		}
		qs[i].EPCClass = v
	}
	return nil
}

// cbvBizStepURN/cbvBizStepWebURI and cbvDispositionURN/cbvDispositionWebURI
// are the CBV URN/Web-URI stems for the business-step and disposition
// vocabularies; rewritten independently of EPC identifiers per CBVPolicy.
const (
	cbvBizStepURN    = "urn:epcglobal:cbv:bizstep:"
	cbvBizStepWebURI = "https://ref.gs1.org/cbv/BizStep-"

	cbvDispositionURN    = "urn:epcglobal:cbv:disp:"
	cbvDispositionWebURI = "https://ref.gs1.org/cbv/Disp-"
)

func rewriteCBVCode(value, urnStem, webURIStem string, policy model.CBVPolicy) string {
	switch policy {
	case model.CBVNoPreference, model.CBVNeverTranslates:
		return value
	case model.CBVAlwaysURN:
		if after, ok := cutPrefix(value, webURIStem); ok {
			return urnStem + after
		}
		return value
	case model.CBVAlwaysWebURI:
		if after, ok := cutPrefix(value, urnStem); ok {
			return webURIStem + after
		}
		return value
	default:
		return value
	}
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

// RewriteCBVCodes rewrites ev's bizStep and disposition codes per
// cbvPolicy, independently of any EPC identifier rewriting.
func RewriteCBVCodes(ev model.EventVariant, cbvPolicy model.CBVPolicy) {
	if cbvPolicy == model.CBVNoPreference || cbvPolicy == model.CBVNeverTranslates {
		return
	}
	core := ev.CoreFields()
	if core.BizStep != nil {
		v := rewriteCBVCode(*core.BizStep, cbvBizStepURN, cbvBizStepWebURI, cbvPolicy)
		core.BizStep = &v
	}
	if core.Disposition != nil {
		v := rewriteCBVCode(*core.Disposition, cbvDispositionURN, cbvDispositionWebURI, cbvPolicy)
		core.Disposition = &v
	}
}
