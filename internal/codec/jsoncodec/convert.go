package jsoncodec

import (
	"fmt"
	"time"

	"github.com/trackvision/epcis-convert/internal/model"
)

// eventTimeLayout matches the EPCIS JSON-LD profile: an ISO-8601 timestamp
// with the zone offset written inline, the same contract as the XML side.
const eventTimeLayout = time.RFC3339

func parseEventTime(s string) (time.Time, error) {
	t, err := time.Parse(eventTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("jsoncodec: malformed eventTime %q: %w", s, model.ErrMalformedInput)
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

	for _, raw := range w.SourceList {
		sd, err := unmarshalSourceDest(raw, "source")
		if err != nil {
			return core, fmt.Errorf("jsoncodec: malformed sourceList entry: %w", model.ErrMalformedInput)
		}
		core.SourceList = append(core.SourceList, model.SourceDest{Type: sd.Type, Value: sd.Value})
	}
	for _, raw := range w.DestinationList {
		sd, err := unmarshalSourceDest(raw, "destination")
		if err != nil {
			return core, fmt.Errorf("jsoncodec: malformed destinationList entry: %w", model.ErrMalformedInput)
		}
		core.DestinationList = append(core.DestinationList, model.SourceDest{Type: sd.Type, Value: sd.Value})
	}

	for _, se := range w.SensorElementList {
		var reports []model.SensorReport
		for _, r := range se.SensorReport {
			reports = append(reports, model.SensorReport{Type: r.Type, Value: r.Value, UOM: r.UOM})
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
	for _, r := range c.SensorElementList {
		var reports []wireSensorReport
		for _, rep := range r.SensorReport {
			reports = append(reports, wireSensorReport{Type: rep.Type, Value: rep.Value, UOM: rep.UOM})
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
