package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackvision/epcis-convert/internal/model"
)

type fakeSink struct {
	written []model.EventVariant
	closed  bool
	closeErr error
}

func (f *fakeSink) Write(ev model.EventVariant) error {
	f.written = append(f.written, ev)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return f.closeErr
}

func newTestEvent(seq uint64) model.EventVariant {
	action := model.ActionObserve
	ev := &model.ObjectEvent{}
	ev.Core.EventTime = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	ev.Core.Action = &action
	ev.Core.SequenceNumber = seq
	return ev
}

func TestCollectorHandlesEventsInOrder(t *testing.T) {
	sink := &fakeSink{}
	c := New(sink, nil, model.OnFailureAbort)

	require.NoError(t, c.Start(model.FrameAttrs{Kind: model.DocumentKindCapture}))
	require.NoError(t, c.Handle(newTestEvent(1)))
	require.NoError(t, c.Handle(newTestEvent(2)))
	require.NoError(t, c.End())

	assert.True(t, sink.closed)
	require.Len(t, sink.written, 2)
	assert.Equal(t, uint64(1), sink.written[0].CoreFields().SequenceNumber)
	assert.Equal(t, uint64(2), sink.written[1].CoreFields().SequenceNumber)
}

func TestCollectorHandleBeforeStartPanics(t *testing.T) {
	c := New(&fakeSink{}, nil, model.OnFailureAbort)
	assert.Panics(t, func() {
		_ = c.Handle(newTestEvent(1))
	})
}

func TestCollectorEndBeforeStartPanics(t *testing.T) {
	c := New(&fakeSink{}, nil, model.OnFailureAbort)
	assert.Panics(t, func() {
		_ = c.End()
	})
}

func TestCollectorDoubleStartPanics(t *testing.T) {
	c := New(&fakeSink{}, nil, model.OnFailureAbort)
	require.NoError(t, c.Start(model.FrameAttrs{}))
	assert.Panics(t, func() {
		_ = c.Start(model.FrameAttrs{})
	})
}

func TestCollectorAbortOnValidationFailure(t *testing.T) {
	sink := &fakeSink{}
	boom := errors.New("bad gln")
	c := New(sink, func(ev model.EventVariant) error { return boom }, model.OnFailureAbort)

	require.NoError(t, c.Start(model.FrameAttrs{}))
	err := c.Handle(newTestEvent(1))

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, uint64(1), verr.SequenceNumber)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.Empty(t, sink.written)
}

func TestCollectorSkipAndContinueOnValidationFailure(t *testing.T) {
	sink := &fakeSink{}
	boom := errors.New("bad gln")
	c := New(sink, func(ev model.EventVariant) error { return boom }, model.OnFailureSkipAndContinue)

	require.NoError(t, c.Start(model.FrameAttrs{}))
	require.NoError(t, c.Handle(newTestEvent(1)))
	require.NoError(t, c.Handle(newTestEvent(2)))
	require.NoError(t, c.End())

	assert.Empty(t, sink.written)
	assert.True(t, sink.closed)
}

func TestCollectSingleEventRunsFullLifecycle(t *testing.T) {
	sink := &fakeSink{}
	c := New(sink, nil, model.OnFailureAbort)

	require.NoError(t, c.CollectSingleEvent(newTestEvent(1)))

	require.Len(t, sink.written, 1)
	assert.True(t, sink.closed)
	assert.Panics(t, func() {
		_ = c.Start(model.FrameAttrs{})
	})
}

func TestSetSubscriptionIDAndQueryNameRefineAttrs(t *testing.T) {
	c := New(&fakeSink{}, nil, model.OnFailureAbort)
	require.NoError(t, c.Start(model.FrameAttrs{Kind: model.DocumentKindQuery}))

	c.SetSubscriptionID("sub-1")
	c.SetQueryName("SimpleEventQuery")

	attrs := c.Attrs()
	require.NotNil(t, attrs.SubscriptionID)
	assert.Equal(t, "sub-1", *attrs.SubscriptionID)
	require.NotNil(t, attrs.QueryName)
	assert.Equal(t, "SimpleEventQuery", *attrs.QueryName)
}

func TestHandleGeneratesEventIDWhenMissing(t *testing.T) {
	sink := &fakeSink{}
	c := New(sink, nil, model.OnFailureAbort)

	ev := newTestEvent(1)
	require.Nil(t, ev.CoreFields().EventID)

	require.NoError(t, c.Start(model.FrameAttrs{}))
	require.NoError(t, c.Handle(ev))

	require.NotNil(t, ev.CoreFields().EventID)
	assert.Contains(t, *ev.CoreFields().EventID, "urn:uuid:")
}

func TestStartGeneratesSubscriptionIDForQueryDocumentsWhenMissing(t *testing.T) {
	c := New(&fakeSink{}, nil, model.OnFailureAbort)

	require.NoError(t, c.Start(model.FrameAttrs{Kind: model.DocumentKindQuery}))

	attrs := c.Attrs()
	require.NotNil(t, attrs.SubscriptionID)
	assert.Contains(t, *attrs.SubscriptionID, "urn:uuid:")
}
