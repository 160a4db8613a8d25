// Package scanner turns a frame decoder into a stream of identifier reads.
// A camera keeps decoding the same label for as long as it is in view; the
// feed forwards only changes so downstream sees one read per presentation.
package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Decoder extracts at most one identifier from the current frame. Empty
// string with nil error means no code in view.
type Decoder interface {
	Decode(ctx context.Context) (string, error)
}

// Read is one decoded identifier with its capture time.
type Read struct {
	ID string
	At time.Time
}

// Feed polls a Decoder at a fixed interval and publishes distinct reads to
// a bounded queue for a single consumer.
type Feed struct {
	dec      Decoder
	interval time.Duration
	log      *zap.Logger
	out      chan Read
	now      func() time.Time
}

// NewFeed constructs a feed. Zero interval defaults to 500ms; zero buffer
// defaults to 16.
func NewFeed(dec Decoder, interval time.Duration, buffer int, log *zap.Logger) *Feed {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{
		dec:      dec,
		interval: interval,
		log:      log,
		out:      make(chan Read, buffer),
		now:      time.Now,
	}
}

// Reads is the consumer side of the feed. The channel is closed when Run
// returns.
func (f *Feed) Reads() <-chan Read { return f.out }

// Consume drains reads and hands each one to submit, serially. It returns
// when the channel closes or the context is done. Submission errors are the
// submitter's to handle; the feed keeps flowing.
func Consume(ctx context.Context, reads <-chan Read, submit func(context.Context, Read)) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-reads:
			if !ok {
				return
			}
			submit(ctx, r)
		}
	}
}

// Run polls until the context is done. Consecutive identical decodes are
// suppressed; a frame with no code re-arms the feed so the same label scanned
// again later is reported again. When the consumer lags, the oldest queued
// read is dropped in favor of the newest.
func (f *Feed) Run(ctx context.Context) error {
	defer close(f.out)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		id, err := f.dec.Decode(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn("frame decode failed", zap.Error(err))
			continue
		}
		if id == last {
			continue
		}
		last = id
		if id == "" {
			continue
		}

		read := Read{ID: id, At: f.now()}
		select {
		case f.out <- read:
		default:
			select {
			case dropped := <-f.out:
				f.log.Warn("scan queue full, dropping oldest", zap.String("id", dropped.ID))
			default:
			}
			select {
			case f.out <- read:
			default:
			}
		}
	}
}
