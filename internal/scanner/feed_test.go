package scanner

import (
	"context"
	"testing"
	"time"
)

type scriptedDecoder struct {
	frames []string
	idx    int
	done   chan struct{}
}

func (d *scriptedDecoder) Decode(_ context.Context) (string, error) {
	if d.idx >= len(d.frames) {
		select {
		case <-d.done:
		default:
			close(d.done)
		}
		return "", nil
	}
	f := d.frames[d.idx]
	d.idx++
	return f, nil
}

func collect(t *testing.T, f *Feed, dec *scriptedDecoder) []string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx) }()

	select {
	case <-dec.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("decoder script never finished")
	}
	cancel()
	<-errCh

	var got []string
	for r := range f.Reads() {
		got = append(got, r.ID)
	}
	return got
}

func TestFeed_SuppressesHeldLabel(t *testing.T) {
	t.Parallel()
	dec := &scriptedDecoder{
		frames: []string{"UNIT-A", "UNIT-A", "UNIT-A", "UNIT-B"},
		done:   make(chan struct{}),
	}
	f := NewFeed(dec, time.Millisecond, 8, nil)

	got := collect(t, f, dec)
	if len(got) != 2 || got[0] != "UNIT-A" || got[1] != "UNIT-B" {
		t.Fatalf("want [UNIT-A UNIT-B], got %v", got)
	}
}

func TestFeed_EmptyFrameRearms(t *testing.T) {
	t.Parallel()
	dec := &scriptedDecoder{
		frames: []string{"UNIT-A", "", "UNIT-A"},
		done:   make(chan struct{}),
	}
	f := NewFeed(dec, time.Millisecond, 8, nil)

	got := collect(t, f, dec)
	if len(got) != 2 || got[0] != "UNIT-A" || got[1] != "UNIT-A" {
		t.Fatalf("want the same label twice across a gap, got %v", got)
	}
}

func TestConsume_SerialUntilClose(t *testing.T) {
	t.Parallel()
	reads := make(chan Read, 4)
	reads <- Read{ID: "MED-A"}
	reads <- Read{ID: "MED-B"}
	close(reads)

	var got []string
	Consume(context.Background(), reads, func(_ context.Context, r Read) {
		got = append(got, r.ID)
	})
	if len(got) != 2 || got[0] != "MED-A" || got[1] != "MED-B" {
		t.Fatalf("want in-order delivery, got %v", got)
	}
}

func TestFeed_DropsOldestWhenFull(t *testing.T) {
	t.Parallel()
	dec := &scriptedDecoder{
		frames: []string{"UNIT-A", "UNIT-B", "UNIT-C"},
		done:   make(chan struct{}),
	}
	f := NewFeed(dec, time.Millisecond, 1, nil)

	got := collect(t, f, dec)
	if len(got) == 0 || got[len(got)-1] != "UNIT-C" {
		t.Fatalf("newest read must survive, got %v", got)
	}
}
