// Package fabric implements the Reactive Fabric (C8): a backpressured
// producer/consumer composition connecting an upstream byte source to a
// downstream decoder without buffering the whole document in memory. The
// teacher has no analogue (its HTTP client does a blocking io.ReadAll), so
// this is grounded on the rest of the pack's golang.org/x/sync idiom
// (errgroup, semaphore) rather than on teacher code directly.
package fabric

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/trackvision/epcis-convert/internal/model"
)

// PrefetchWindow is the number of chunks a Publisher may have outstanding
// (sent but not yet consumed) before Publish blocks.
const PrefetchWindow = 16

// StallTimeout bounds how long a PullReader will wait for the next chunk
// before failing with ErrUpstreamStalled.
const StallTimeout = 5 * time.Minute

// Source is the pull-style byte stream a Format Pipeline stage consumes
// or produces. *PullReader satisfies it; so does any plain io.Reader for
// stages that don't need backpressure (e.g. reading a fully-materialized
// in-memory buffer produced by the schema-version transformer).
type Source = io.Reader

// chunk carries one published slice or a terminal error/EOF signal.
type chunk struct {
	data []byte
	err  error // io.EOF on clean end, any other error on failure
}

// Publisher is a single-threaded producer of []byte chunks, demand-limited
// by a semaphore sized to PrefetchWindow.
type Publisher struct {
	out chan chunk
	sem *semaphore.Weighted
}

// PullReader is the io.Reader consumer side of a Publisher, re-arming the
// demand semaphore by one slot for every chunk it consumes off the
// channel, one for one with the slot that chunk's Publish call acquired.
type PullReader struct {
	in           chan chunk
	sem          *semaphore.Weighted
	buf          []byte
	err          error
	stallTimeout time.Duration
}

// New builds a connected Publisher/PullReader pair sharing one
// PrefetchWindow-sized demand semaphore and a channel with room for
// PrefetchWindow chunks plus the terminal one, so admission is governed by
// the semaphore and neither Publish nor Close waits on the channel itself.
func New() (*Publisher, *PullReader) {
	return NewWithStallTimeout(StallTimeout)
}

// NewWithStallTimeout is New with an overridable stall timeout, for tests
// that need to exercise ErrUpstreamStalled without waiting five minutes.
func NewWithStallTimeout(stallTimeout time.Duration) (*Publisher, *PullReader) {
	ch := make(chan chunk, PrefetchWindow+1)
	sem := semaphore.NewWeighted(int64(PrefetchWindow))
	return &Publisher{out: ch, sem: sem}, &PullReader{in: ch, sem: sem, stallTimeout: stallTimeout}
}

// Publish blocks until a demand slot is available (or ctx is cancelled),
// then hands data to the consumer. Ownership of data transfers to the
// fabric; the caller must not reuse the slice afterward.
func (p *Publisher) Publish(ctx context.Context, data []byte) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("fabric: %w", model.ErrConversionAborted)
	}
	select {
	case p.out <- chunk{data: data}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("fabric: %w", model.ErrConversionAborted)
	}
}

// Close signals the end of the stream: io.EOF for a clean end, any other
// error to fail the downstream read.
func (p *Publisher) Close(err error) {
	if err == nil {
		err = io.EOF
	}
	p.out <- chunk{err: err}
	close(p.out)
}

// Read implements io.Reader, pulling chunks from the Publisher and
// re-arming demand as it consumes them.
func (r *PullReader) Read(p []byte) (int, error) {
	if r.err != nil && len(r.buf) == 0 {
		return 0, r.err
	}

	for len(r.buf) == 0 {
		timer := time.NewTimer(r.stallTimeout)
		select {
		case c, ok := <-r.in:
			timer.Stop()
			if !ok {
				r.err = io.EOF
				return 0, r.err
			}
			if c.err != nil {
				r.err = c.err
				if len(c.data) == 0 {
					return 0, r.err
				}
			}
			r.buf = c.data
			r.rearm()
		case <-timer.C:
			r.err = fmt.Errorf("fabric: %w", model.ErrUpstreamStalled)
			return 0, r.err
		}
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	if len(r.buf) == 0 && r.err != nil {
		return n, r.err
	}
	return n, nil
}

// rearm releases the demand slot the matching Publish call acquired, so the
// producer never has more than PrefetchWindow chunks outstanding.
func (r *PullReader) rearm() {
	r.sem.Release(1)
}

// Run drives produce and consume as the two cooperating tasks of a single
// conversion, using errgroup so the first error from either side cancels
// the other and is returned; cancellation of ctx tears the whole fabric
// down without letting consume observe a partial final chunk as if it were
// a complete one (produce's Close always carries the real outcome).
func Run(ctx context.Context, produce func(ctx context.Context, pub *Publisher) error, consume func(ctx context.Context, r *PullReader) error) error {
	pub, reader := New()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := produce(gctx, pub)
		pub.Close(err)
		if err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return consume(gctx, reader)
	})

	return g.Wait()
}
