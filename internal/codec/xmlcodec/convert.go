package xmlcodec

import (
	"fmt"
	"time"

	"github.com/trackvision/epcis-convert/internal/model"
)

// eventTimeLayout matches the EPCIS XML profile: an RFC3339 timestamp whose
// zone offset is captured separately in eventTimeZoneOffset so it survives
// round-tripping even when time.Time normalizes to UTC internally.
const eventTimeLayout = time.RFC3339

func parseEventTime(s string) (time.Time, error) {
	t, err := time.Parse(eventTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("xmlcodec: malformed eventTime %q: %w", s, model.ErrMalformedInput)
	}
	return t, nil
}

func formatEventTime(t time.Time, offset string) string {
	loc := time.UTC
	if offset != "" {
		if parsed, err := time.Parse("-07:00", offset); err == nil {
			_, secs := parsed.Zone()
			loc = time.FixedZone(offset, secs)
		}
	}
	return t.In(loc).Format(eventTimeLayout)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func wireCoreToModel(w wireCore) (model.Core, error) {
	var core model.Core
	t, err := parseEventTime(w.EventTime)
	if err != nil {
		return core, err
	}
	core.EventTime = t
	core.EventTimeZoneOffset = w.EventTimeZoneOffset

	if w.RecordTime != "" {
		rt, err := parseEventTime(w.RecordTime)
		if err != nil {
			return core, err
		}
		core.RecordTime = &rt
	}
	core.EventID = strPtr(w.EventID)

	if w.ErrorDeclaration != nil {
		dt, err := parseEventTime(w.ErrorDeclaration.DeclarationTime)
		if err != nil {
			return core, err
		}
		core.ErrorDeclaration = &model.ErrorDeclaration{
			DeclarationTime: dt,
			Reason:          strPtr(w.ErrorDeclaration.Reason),
			CorrectiveIDs:   w.ErrorDeclaration.CorrectiveIDs,
		}
	}

	if w.Action != "" {
		a := model.Action(w.Action)
		core.Action = &a
	}
	core.BizStep = strPtr(w.BizStep)
	core.Disposition = strPtr(w.Disposition)
	if w.ReadPoint != nil {
		core.ReadPoint = strPtr(w.ReadPoint.ID)
	}
	if w.BizLocation != nil {
		core.BizLocation = strPtr(w.BizLocation.ID)
	}

	for _, s := range w.SourceList {
		core.SourceList = append(core.SourceList, model.SourceDest{Type: s.Type, Value: s.Value})
	}
	for _, d := range w.DestinationList {
		core.DestinationList = append(core.DestinationList, model.SourceDest{Type: d.Type, Value: d.Value})
	}

	for _, se := range w.SensorElementList {
		var reports []model.SensorReport
		for _, r := range se.SensorReport {
			report := model.SensorReport{Type: r.Type, UOM: r.UOM}
			if r.Value != nil {
				var f float64
				if _, err := fmt.Sscanf(*r.Value, "%g", &f); err == nil {
					report.Value = &f
				} else {
					report.StringVal = r.Value
				}
			}
			reports = append(reports, report)
		}
		core.SensorElementList = append(core.SensorElementList, model.SensorElement{SensorReport: reports})
	}

	if w.PersistentDisposition != nil {
		core.PersistentDisposition = &model.PersistentDisposition{
			Set:   w.PersistentDisposition.Set,
			Unset: w.PersistentDisposition.Unset,
		}
	}

	return core, nil
}

func modelCoreToWire(c model.Core) wireCore {
	w := wireCore{
		EventTime:           formatEventTime(c.EventTime, c.EventTimeZoneOffset),
		EventTimeZoneOffset: c.EventTimeZoneOffset,
		EventID:             strVal(c.EventID),
		BizStep:             strVal(c.BizStep),
		Disposition:         strVal(c.Disposition),
	}
	if c.RecordTime != nil {
		w.RecordTime = formatEventTime(*c.RecordTime, c.EventTimeZoneOffset)
	}
	if c.ErrorDeclaration != nil {
		w.ErrorDeclaration = &wireErrorDeclaration{
			DeclarationTime: formatEventTime(c.ErrorDeclaration.DeclarationTime, ""),
			Reason:          strVal(c.ErrorDeclaration.Reason),
			CorrectiveIDs:   c.ErrorDeclaration.CorrectiveIDs,
		}
	}
	if c.Action != nil {
		w.Action = string(*c.Action)
	}
	if c.ReadPoint != nil {
		w.ReadPoint = &wireID{ID: *c.ReadPoint}
	}
	if c.BizLocation != nil {
		w.BizLocation = &wireID{ID: *c.BizLocation}
	}
	for _, s := range c.SourceList {
		w.SourceList = append(w.SourceList, wireSourceDest{Type: s.Type, Value: s.Value})
	}
	for _, d := range c.DestinationList {
		w.DestinationList = append(w.DestinationList, wireSourceDest{Type: d.Type, Value: d.Value})
	}
	for _, se := range c.SensorElementList {
		var reports []wireSensorReport
		for _, r := range se.SensorReport {
			wr := wireSensorReport{Type: r.Type, UOM: r.UOM}
			switch {
			case r.Value != nil:
				v := fmt.Sprintf("%g", *r.Value)
				wr.Value = &v
			case r.StringVal != nil:
				wr.Value = r.StringVal
			}
			reports = append(reports, wr)
		}
		w.SensorElementList = append(w.SensorElementList, wireSensorElement{SensorReport: reports})
	}
	if c.PersistentDisposition != nil {
		w.PersistentDisposition = &wirePersistentDisposition{
			Set:   c.PersistentDisposition.Set,
			Unset: c.PersistentDisposition.Unset,
		}
	}
	return w
}

func quantityToModel(qs []wireQuantityElement) []model.QuantityElement {
	out := make([]model.QuantityElement, 0, len(qs))
	for _, q := range qs {
		out = append(out, model.QuantityElement{EPCClass: q.EPCClass, Quantity: q.Quantity, UOM: q.UOM})
	}
	return out
}

func quantityToWire(qs []model.QuantityElement) []wireQuantityElement {
	out := make([]wireQuantityElement, 0, len(qs))
	for _, q := range qs {
		out = append(out, wireQuantityElement{EPCClass: q.EPCClass, Quantity: q.Quantity, UOM: q.UOM})
	}
	return out
}

func bizTxnToModel(ts []wireBizTransaction) []model.BizTransaction {
	out := make([]model.BizTransaction, 0, len(ts))
	for _, t := range ts {
		out = append(out, model.BizTransaction{Type: strPtr(t.Type), Value: t.Value})
	}
	return out
}

func bizTxnToWire(ts []model.BizTransaction) []wireBizTransaction {
	out := make([]wireBizTransaction, 0, len(ts))
	for _, t := range ts {
		out = append(out, wireBizTransaction{Type: strVal(t.Type), Value: t.Value})
	}
	return out
}
