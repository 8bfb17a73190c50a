package geminiservice

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// relayState tracks where a StreamRelay is in its lifecycle.
type relayState int

const (
	relayOpen relayState = iota
	relayReading
	relayDraining
	relayClosed
)

const relayReadSize = 4 * 1024

// StreamRelay drives decoder -> extractor -> mapper over an inbound response
// body and republishes the derived events on an outbound channel. One relay
// serves exactly one request; nothing here is shared across requests.
type StreamRelay struct {
	body    io.ReadCloser
	dec     chunkDecoder
	scanner *ObjectScanner
	log     zerolog.Logger

	state     relayState
	closeOnce sync.Once
}

// NewStreamRelay wraps an upstream response body. The relay owns the body
// and closes it when the stream ends, errors out, or is cancelled.
func NewStreamRelay(body io.ReadCloser, log zerolog.Logger) *StreamRelay {
	return &StreamRelay{
		body:    body,
		scanner: NewObjectScanner(),
		log:     log,
		state:   relayOpen,
	}
}

// Events starts the producer loop and returns the outbound event channel.
// The channel is unbuffered: the relay does not read the next inbound chunk
// until the consumer has accepted every event derived from the current one,
// so ordering and backpressure fall out of sequential execution. When ctx is
// cancelled (consumer gone), the relay closes the upstream body and stops
// instead of reading to completion. The channel is closed after the terminal
// Done or Error event.
func (r *StreamRelay) Events(ctx context.Context) <-chan DeltaEvent {
	out := make(chan DeltaEvent)
	go r.run(ctx, out)
	return out
}

func (r *StreamRelay) run(ctx context.Context, out chan<- DeltaEvent) {
	defer close(out)
	defer r.Close()
	// state is only ever written from this goroutine; Close touches just
	// the body, so a consumer-side teardown cannot race these writes.
	defer func() { r.state = relayClosed }()

	r.state = relayReading
	buf := make([]byte, relayReadSize)

	for r.state == relayReading {
		n, err := r.body.Read(buf)
		if n > 0 {
			if !r.forward(ctx, out, r.dec.Feed(buf[:n])) {
				return
			}
		}
		switch {
		case err == io.EOF:
			r.state = relayDraining
		case err != nil:
			if ctx.Err() != nil {
				// Consumer disconnected; nothing is listening anymore.
				r.log.Debug().Msg("stream relay cancelled by consumer")
				return
			}
			r.log.Error().Err(err).Msg("upstream stream read failed")
			r.send(ctx, out, ErrorEvent("upstream stream interrupted"))
			return
		}
	}

	// Draining: flush the decoder, run one last extraction pass, then
	// finish with the terminal marker.
	if !r.forward(ctx, out, r.dec.Finish()) {
		return
	}
	if rest := r.scanner.Remainder(); rest != "" {
		r.log.Debug().Int("bytes", len(rest)).Msg("discarding unterminated stream remainder")
	}
	r.send(ctx, out, DoneEvent())
}

// forward runs extraction and mapping over newly decoded text and pushes the
// resulting events in order. Returns false when the consumer is gone.
func (r *StreamRelay) forward(ctx context.Context, out chan<- DeltaEvent, text string) bool {
	if text == "" {
		return true
	}
	for _, span := range r.scanner.Feed(text) {
		events, err := MapDeltas(span)
		if err != nil {
			// Malformed fragment: log and move on, never fatal.
			r.log.Warn().Err(err).Msg("skipping unparseable stream fragment")
			continue
		}
		for _, ev := range events {
			if !r.send(ctx, out, ev) {
				return false
			}
		}
	}
	return true
}

func (r *StreamRelay) send(ctx context.Context, out chan<- DeltaEvent, ev DeltaEvent) bool {
	// Nothing more goes out once the consumer has cancelled, even if it is
	// still draining the channel.
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close releases the upstream body. Safe to call more than once; after the
// first call the relay emits nothing further. Closing the body also
// unblocks a producer loop stuck in Read.
func (r *StreamRelay) Close() {
	r.closeOnce.Do(func() {
		if err := r.body.Close(); err != nil {
			r.log.Debug().Err(err).Msg("closing upstream body")
		}
	})
}
