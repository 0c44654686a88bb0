// Package slots holds the ordered list of emotion slots and the images bound to them.
package slots

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/go-hclog"

	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
)

// Options configures a Registry.
type Options struct {
	// ReplacePolicy applies to ReplaceFromText. Defaults to PreserveBindings.
	ReplacePolicy ReplacePolicy

	// LowerCaseNames lower-cases names passed to Append.
	LowerCaseNames bool

	// Decoder builds previews. Defaults to NewDecoder with default options.
	Decoder ImageDecoder

	Logger hclog.Logger
}

// Binding is an image bound to a slot.
type Binding struct {
	Slot    string
	Blob    Blob
	Preview *Preview // nil until the decode finishes
	BoundAt time.Time

	generation uint64
}

// Registry is an ordered list of slot names plus at most one image
// binding per name. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	names       []string
	bindings    map[string]*Binding
	generation  uint64
	subscribers map[int]func(Event)
	nextSub     int

	policy    ReplacePolicy
	lowerCase bool
	decoder   ImageDecoder
	logger    hclog.Logger
	inflight  sync.WaitGroup
}

// NewRegistry creates a registry holding the default emotions.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Decoder == nil {
		opts.Decoder = NewDecoder(DecoderOptions{Logger: opts.Logger})
	}
	if opts.ReplacePolicy == "" {
		opts.ReplacePolicy = PreserveBindings
	}

	return &Registry{
		names:       defaultNames(),
		bindings:    make(map[string]*Binding),
		subscribers: make(map[int]func(Event)),
		policy:      opts.ReplacePolicy,
		lowerCase:   opts.LowerCaseNames,
		decoder:     opts.Decoder,
		logger:      opts.Logger.Named("slots"),
	}
}

// Names returns a copy of the slot names in display order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of slots, counting duplicates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Policy returns the configured replace policy.
func (r *Registry) Policy() ReplacePolicy {
	return r.policy
}

// Binding returns a copy of the binding for slot.
func (r *Registry) Binding(slot string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[slot]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Bound returns the bindings of the current slot list in display order.
// A name listed twice is reported once, at its first position. Bindings
// kept for names no longer listed are not included.
func (r *Registry) Bound() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.names))
	var out []Binding
	for _, name := range r.names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if b, ok := r.bindings[name]; ok {
			out = append(out, *b)
		}
	}
	return out
}

// Reset restores the default emotions and clears every binding.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.names = defaultNames()
	r.bindings = make(map[string]*Binding)
	names := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Info("🔄 Registry reset", "slots", len(names))
	r.emit(Event{Kind: EventReset, Index: -1, Names: names})
}

// ReplaceFromText replaces the slot list with the non-blank, trimmed
// lines of text. Order and duplicates are kept. When no line remains the
// default emotions are restored and ErrEmptySlotList is returned as a
// warning; the registry is still updated.
func (r *Registry) ReplaceFromText(text string) error {
	names := ParseNames(text)

	var warning error
	if len(names) == 0 {
		names = defaultNames()
		warning = emoteerrors.ErrEmptySlotList
	}

	r.mu.Lock()
	r.names = names
	if r.policy == ClearBindings {
		r.bindings = make(map[string]*Binding)
	}
	snapshot := r.snapshotLocked()
	kept := len(r.bindings)
	r.mu.Unlock()

	if warning != nil {
		r.logger.Warn("⚠️ Slot list empty, restored defaults")
	}
	r.logger.Info("📋 Slot list replaced", "slots", len(snapshot), "policy", string(r.policy), "bindings_kept", kept)
	r.emit(Event{Kind: EventReplaced, Index: -1, Names: snapshot})
	return warning
}

// ParseNames splits text into trimmed, non-empty lines.
func ParseNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Append adds one slot at the end. Blank input is ignored and reports
// false with no error. A name already present returns ErrDuplicateSlot
// and leaves the registry unchanged.
func (r *Registry) Append(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if r.lowerCase {
		name = strings.ToLower(name)
	}
	if name == "" {
		return false, nil
	}

	r.mu.Lock()
	if r.indexLocked(name) >= 0 {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %q", emoteerrors.ErrDuplicateSlot, name)
	}
	r.names = append(r.names, name)
	index := len(r.names) - 1
	r.mu.Unlock()

	r.logger.Debug("➕ Slot appended", "slot", name, "index", index)
	r.emit(Event{Kind: EventAppended, Slot: name, Index: index})
	return true, nil
}

// Bind attaches blob to slot. Blobs whose media type is not "image/..."
// are ignored: the returned Pending is already done and reports Ignored.
//
// The raw blob is stored immediately; the preview is decoded on a new
// goroutine using ctx, and EventBound is emitted when it lands. If slot
// is bound again before the decode finishes, the older result is dropped.
func (r *Registry) Bind(ctx context.Context, slot string, blob Blob) (*Pending, error) {
	if !blob.IsImage() {
		r.logger.Debug("🚫 Ignoring non-image file", "slot", slot, "name", blob.Name, "media_type", blob.MediaType)
		return ignoredPending(), nil
	}

	r.mu.Lock()
	if r.indexLocked(slot) < 0 {
		hint := closestName(slot, r.names)
		r.mu.Unlock()
		if hint != "" {
			return nil, fmt.Errorf("%w: %q (did you mean %q?)", emoteerrors.ErrUnknownSlot, slot, hint)
		}
		return nil, fmt.Errorf("%w: %q", emoteerrors.ErrUnknownSlot, slot)
	}
	r.generation++
	gen := r.generation
	r.bindings[slot] = &Binding{
		Slot:       slot,
		Blob:       blob,
		BoundAt:    time.Now(),
		generation: gen,
	}
	r.inflight.Add(1)
	r.mu.Unlock()

	r.logger.Debug("📥 Image bound, decoding", "slot", slot, "name", blob.Name, "size", len(blob.Data))

	p := newPending()
	go r.decode(ctx, slot, gen, blob, p)
	return p, nil
}

// Wait blocks until every decode started so far has finished.
func (r *Registry) Wait() {
	r.inflight.Wait()
}

func (r *Registry) decode(ctx context.Context, slot string, gen uint64, blob Blob, p *Pending) {
	defer r.inflight.Done()

	preview, err := r.decoder.Decode(ctx, blob)
	if err != nil {
		r.logger.Warn("❌ Decode failed, raw image kept", "slot", slot, "error", err)
		p.finish(nil, err, false)
		return
	}

	r.mu.Lock()
	current, ok := r.bindings[slot]
	if !ok || current.generation != gen {
		r.mu.Unlock()
		r.logger.Trace("⏭️ Dropping superseded decode", "slot", slot, "generation", gen)
		p.finish(preview, nil, true)
		return
	}
	current.Preview = preview
	index := r.indexLocked(slot)
	r.mu.Unlock()

	r.emit(Event{Kind: EventBound, Slot: slot, Index: index})
	p.finish(preview, nil, false)
}

// Subscribe registers fn for every registry event and returns a function
// that removes it. fn runs on the goroutine that caused the event.
func (r *Registry) Subscribe(fn func(Event)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

func (r *Registry) emit(ev Event) {
	r.mu.RLock()
	subs := make([]func(Event), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (r *Registry) indexLocked(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (r *Registry) snapshotLocked() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// closestName suggests a listed name within a small edit distance of name.
func closestName(name string, names []string) string {
	best := ""
	bestDist := len(name)/3 + 2
	for _, candidate := range names {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(candidate))
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
