package slots

import (
	"context"
	"sync"
)

// EventKind tells subscribers how much of the view to redraw.
type EventKind int

const (
	// EventReset and EventReplaced invalidate the whole list.
	EventReset EventKind = iota
	EventReplaced
	// EventAppended adds one cell at Index.
	EventAppended
	// EventBound refreshes the cell of Slot after its preview is decoded.
	EventBound
)

func (k EventKind) String() string {
	switch k {
	case EventReset:
		return "reset"
	case EventReplaced:
		return "replaced"
	case EventAppended:
		return "appended"
	case EventBound:
		return "bound"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event describes one registry change.
type Event struct {
	Kind  EventKind `json:"kind"`
	Slot  string    `json:"slot,omitempty"`
	Index int       `json:"index"`
	Names []string  `json:"names,omitempty"` // full list for reset/replace
}

// Pending tracks one asynchronous decode started by Bind.
type Pending struct {
	done       chan struct{}
	once       sync.Once
	preview    *Preview
	err        error
	superseded bool
	ignored    bool
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func ignoredPending() *Pending {
	p := newPending()
	p.ignored = true
	close(p.done)
	return p
}

func (p *Pending) finish(preview *Preview, err error, superseded bool) {
	p.once.Do(func() {
		p.preview = preview
		p.err = err
		p.superseded = superseded
		close(p.done)
	})
}

// Wait blocks until the decode finishes or ctx ends, and returns the
// decode error if any.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Preview blocks until the decode has finished and returns its preview.
func (p *Pending) Preview() *Preview {
	<-p.done
	return p.preview
}

// Ignored reports whether the blob was rejected as a non-image.
func (p *Pending) Ignored() bool {
	return p.ignored
}

// Superseded reports whether a later Bind replaced this one before its
// decode finished. It blocks until the decode has finished.
func (p *Pending) Superseded() bool {
	<-p.done
	return p.superseded
}
