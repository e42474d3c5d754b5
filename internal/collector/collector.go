// Package collector implements the Event Handler / Collector (C9): the
// Start/Handle/End lifecycle that sits between the decode-side event
// stream (after the decoder assigns SequenceNumber) and whichever
// encoder-backed Sink the Format Pipeline selected. It owns the single
// validator trait and the Abort/SkipAndContinue policy named by
// ConversionSpec.OnFailure. It also backstops two correlation ids with
// github.com/google/uuid when the source document didn't carry one: a
// per-event eventID and a query document's subscriptionID.
package collector

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/trackvision/epcis-convert/internal/model"
)

// state tracks lifecycle position. The zero value is stateNew so a
// zero-value Collector (never returned by New, but cheap to reason about)
// still fails safely.
type state int

const (
	stateNew state = iota
	stateStarted
	stateEnded
)

// Sink is the minimal write surface a Collector drives. Both
// internal/codec/xmlcodec.Encoder and internal/codec/jsoncodec.Encoder
// satisfy it through a thin adapter built alongside the Plan for a given
// ConversionSpec, since their Close signatures differ (xmlcodec's takes
// the destination io.Writer, jsoncodec's captured it at construction).
type Sink interface {
	Write(ev model.EventVariant) error
	Close() error
}

// Validator inspects one decoded event and rejects it with a non-nil
// error. A nil Validator accepts every event.
type Validator func(ev model.EventVariant) error

// Collector drives a Sink through the Start/Handle*/End lifecycle,
// enforcing the balance invariant with a panic: calling Handle before
// Start, calling Start twice, or calling End before Start is a programmer
// error in the pipeline wiring, not a condition the caller can recover
// from, so it is not reported as an error value.
type Collector struct {
	sink      Sink
	validator Validator
	onFailure model.OnFailureMode

	state state
	attrs model.FrameAttrs
}

// New builds a Collector over sink, validating every event with validator
// (nil accepts everything) and applying onFailure when validation fails.
func New(sink Sink, validator Validator, onFailure model.OnFailureMode) *Collector {
	return &Collector{sink: sink, validator: validator, onFailure: onFailure}
}

// Start opens the collection lifecycle for a multi-event document. attrs
// is retained for SetSubscriptionID/SetQueryName and Attrs() to refine
// before the caller finalizes a query-document header; it does not itself
// write anything, since the Sink's header was already emitted when the
// pipeline constructed the encoder.
func (c *Collector) Start(attrs model.FrameAttrs) error {
	if c.state != stateNew {
		panic("collector: Start called more than once")
	}
	c.state = stateStarted
	c.attrs = attrs
	if c.attrs.Kind == model.DocumentKindQuery && c.attrs.SubscriptionID == nil {
		c.SetSubscriptionID(fmt.Sprintf("urn:uuid:%s", uuid.New().String()))
	}
	return nil
}

// SetSubscriptionID refines the query-document metadata recorded at
// Start, for query results whose subscription id is only known once the
// first batch of events has been produced.
func (c *Collector) SetSubscriptionID(id string) {
	c.attrs.SubscriptionID = &id
}

// SetQueryName refines the query-document metadata recorded at Start.
func (c *Collector) SetQueryName(name string) {
	c.attrs.QueryName = &name
}

// Attrs returns the frame metadata accumulated so far.
func (c *Collector) Attrs() model.FrameAttrs {
	return c.attrs
}

// Handle validates and forwards one decoded event. Handle must run
// between Start and End.
func (c *Collector) Handle(ev model.EventVariant) error {
	if c.state != stateStarted {
		panic("collector: Handle called outside an open Start/End span")
	}
	return c.handle(ev)
}

func (c *Collector) handle(ev model.EventVariant) error {
	core := ev.CoreFields()
	if core.EventID == nil {
		generated := fmt.Sprintf("urn:uuid:%s", uuid.New().String())
		core.EventID = &generated
	}

	if c.validator != nil {
		if err := c.validator(ev); err != nil {
			verr := model.NewValidationError(ev.CoreFields().SequenceNumber, err)
			if c.onFailure == model.OnFailureAbort {
				return verr
			}
			return nil
		}
	}
	return c.sink.Write(ev)
}

// CollectSingleEvent handles the bare single-event-root case (no
// document wrapper, DocumentFrame.SingleEvent true): it runs the full
// lifecycle for exactly one event in a single call, since there is no
// header/footer to hold open around it.
func (c *Collector) CollectSingleEvent(ev model.EventVariant) error {
	if c.state != stateNew {
		panic("collector: CollectSingleEvent called after Start or End")
	}
	c.state = stateStarted
	if err := c.handle(ev); err != nil {
		c.state = stateEnded
		_ = c.sink.Close()
		return err
	}
	return c.End()
}

// End closes the collection lifecycle, flushing the Sink. End must run
// exactly once, after Start.
func (c *Collector) End() error {
	if c.state != stateStarted {
		panic("collector: End called before Start, or more than once")
	}
	c.state = stateEnded
	return c.sink.Close()
}
